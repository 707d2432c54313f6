package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventops/eventops/internal/model"
	"github.com/eventops/eventops/internal/repository"
)

// EventService owns the event lifecycle: admin CRUD, Draft→Published→Canceled
// moves, and the read-side listings.
type EventService struct {
	store repository.Store
	log   *zap.Logger
}

// NewEventService constructs an EventService.
func NewEventService(store repository.Store, log *zap.Logger) *EventService {
	return &EventService{store: store, log: log}
}

// Create validates the request and persists a new event in DRAFT.
func (s *EventService) Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, fmt.Errorf("event title is required")
	}
	if req.Capacity <= 0 {
		return nil, fmt.Errorf("capacity must be a positive integer")
	}
	if req.Capacity > 100_000 {
		return nil, fmt.Errorf("capacity cannot exceed 100,000")
	}
	if req.DateTime.IsZero() {
		return nil, fmt.Errorf("event date is required")
	}

	ev := &model.Event{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		DateTime:    req.DateTime,
		Location:    req.Location,
		Capacity:    req.Capacity,
		Status:      model.EventDraft,
	}
	if err := s.store.CreateEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.log.Info("event created", zap.String("event_id", ev.ID), zap.String("title", ev.Title))
	return ev, nil
}

// Update applies a partial edit; admins use this for field edits and for
// status moves (publish, cancel).
func (s *EventService) Update(ctx context.Context, id string, upd model.EventUpdate) (*model.Event, error) {
	if upd.Capacity != nil && *upd.Capacity <= 0 {
		return nil, fmt.Errorf("capacity must be a positive integer")
	}
	if upd.Status != nil {
		switch *upd.Status {
		case model.EventDraft, model.EventPublished, model.EventCanceled:
		default:
			return nil, fmt.Errorf("unknown event status %q", *upd.Status)
		}
	}
	ev, err := s.store.UpdateEvent(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.log.Info("event updated", zap.String("event_id", id), zap.String("status", string(ev.Status)))
	return ev, nil
}

// Delete removes the event; the store cascades to every reservation
// referencing it, so no orphan reservation survives.
func (s *EventService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.log.Info("event deleted", zap.String("event_id", id))
	return nil
}

// Get returns a single event by id.
func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, fmt.Errorf("event id is required")
	}
	return s.store.GetEventByID(ctx, id)
}

// ListPublic returns published events only, soonest first.
func (s *EventService) ListPublic(ctx context.Context) ([]model.Event, error) {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.Status == model.EventPublished {
			out = append(out, ev)
		}
	}
	sortEventsByDate(out)
	return out, nil
}

// ListAdmin returns all events with their reserved count, soonest first.
// The count uses the same confirmed+pending status set as the admission
// capacity check, so the dashboard always agrees with the admission engine.
func (s *EventService) ListAdmin(ctx context.Context) ([]model.EventWithCount, error) {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	sortEventsByDate(events)

	out := make([]model.EventWithCount, 0, len(events))
	for _, ev := range events {
		n, err := s.store.CountReservations(ctx, ev.ID, model.ReservedStatuses...)
		if err != nil {
			return nil, fmt.Errorf("count reservations for %s: %w", ev.ID, err)
		}
		out = append(out, model.EventWithCount{Event: ev, ReservedCount: n})
	}
	return out, nil
}

func sortEventsByDate(events []model.Event) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].DateTime.Before(events[j].DateTime)
	})
}
