// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventops/eventops/internal/model"
	"github.com/eventops/eventops/internal/repository"
)

// ReservationService is the reservation core: the admission engine deciding
// whether a seat may be claimed, and the status machine governing transitions.
type ReservationService struct {
	store repository.Store
	log   *zap.Logger
}

// NewReservationService constructs a ReservationService.
func NewReservationService(store repository.Store, log *zap.Logger) *ReservationService {
	return &ReservationService{store: store, log: log}
}

// Reserve admits a new reservation for userID on eventID, or rejects it.
//
// All checks run inside the store's per-event admission scope, so two
// concurrent requests for the last remaining seat cannot both observe free
// capacity: one commits, the other re-evaluates against the committed state
// and fails with model.ErrEventFull. The checks, in order:
//
//  1. event exists            → model.ErrNotFound
//  2. event is published      → model.ErrEventNotPublished
//  3. no active duplicate     → model.ErrDuplicateReservation
//  4. confirmed+pending < cap → model.ErrEventFull
//
// On success exactly one PENDING reservation is created; every failure path
// leaves no state behind.
func (s *ReservationService) Reserve(ctx context.Context, userID, eventID string) (*model.Reservation, error) {
	if userID == "" || eventID == "" {
		return nil, fmt.Errorf("user id and event id are required")
	}

	var created *model.Reservation
	err := s.store.AdmitScope(ctx, eventID, func(tx repository.Store, ev *model.Event) error {
		if ev.Status != model.EventPublished {
			return model.ErrEventNotPublished
		}

		existing, err := tx.FindActiveReservation(ctx, userID, ev.ID)
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if existing != nil {
			return model.ErrDuplicateReservation
		}

		held, err := tx.CountReservations(ctx, ev.ID, model.ReservedStatuses...)
		if err != nil {
			return fmt.Errorf("count reservations: %w", err)
		}
		if held >= ev.Capacity {
			return model.ErrEventFull
		}

		r := &model.Reservation{
			ID:        uuid.New().String(),
			EventID:   ev.ID,
			UserID:    userID,
			Status:    model.ReservationPending,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.CreateReservation(ctx, r); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("reservation admitted",
		zap.String("reservation_id", created.ID),
		zap.String("event_id", eventID),
		zap.String("user_id", userID),
	)
	return created, nil
}

// SetStatus applies a status transition on behalf of actor.
//
// An administrative actor may set any target status on any reservation; the
// requested status is written verbatim, including moves like REFUSED back to
// CONFIRMED. A participant actor must own the reservation and may only set
// CANCELED. Concurrent writes to the same reservation are last-write-wins.
func (s *ReservationService) SetStatus(ctx context.Context, actor Actor, reservationID string, target model.ReservationStatus) (*model.Reservation, error) {
	r, err := s.store.GetReservationByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	if !actor.admin {
		if r.UserID != actor.userID {
			return nil, model.ErrForbidden
		}
		if target != model.ReservationCanceled {
			return nil, model.ErrCancelOnly
		}
	}

	updated, err := s.store.UpdateReservationStatus(ctx, reservationID, target)
	if err != nil {
		return nil, err
	}

	s.log.Info("reservation status updated",
		zap.String("reservation_id", reservationID),
		zap.String("from", string(r.Status)),
		zap.String("to", string(target)),
		zap.Bool("admin", actor.admin),
	)
	return updated, nil
}

// ListMine returns the user's reservations joined with their events, newest
// first.
func (s *ReservationService) ListMine(ctx context.Context, userID string) ([]model.ReservationDetail, error) {
	rs, err := s.store.ListReservationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, rs, true, false)
}

// ListByEvent returns an event's reservations joined with their users, newest
// first.
func (s *ReservationService) ListByEvent(ctx context.Context, eventID string) ([]model.ReservationDetail, error) {
	rs, err := s.store.ListReservationsByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, rs, false, true)
}

// ListAll returns every reservation joined with event and user, newest first.
// Admin dashboard view.
func (s *ReservationService) ListAll(ctx context.Context) ([]model.ReservationDetail, error) {
	rs, err := s.store.ListReservations(ctx)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, rs, true, true)
}

// enrich joins reservations with their event and/or user records and sorts by
// creation time descending. Records whose joins have since been deleted keep
// a nil joined field rather than failing the whole listing.
func (s *ReservationService) enrich(ctx context.Context, rs []model.Reservation, withEvent, withUser bool) ([]model.ReservationDetail, error) {
	out := make([]model.ReservationDetail, 0, len(rs))
	for _, r := range rs {
		d := model.ReservationDetail{Reservation: r}
		if withEvent {
			if ev, err := s.store.GetEventByID(ctx, r.EventID); err == nil {
				d.Event = ev
			}
		}
		if withUser {
			if u, err := s.store.GetUserByID(ctx, r.UserID); err == nil {
				d.User = u
			}
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
