package repository

import (
	"context"
	"sync"

	"github.com/eventops/eventops/internal/model"
)

// MemoryStore is an in-process Store backed by maps. A single RWMutex guards
// the record maps; admission scopes additionally take a lazily created
// per-event mutex so that concurrent admission attempts on the same event are
// serialized while different events stay independent.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[string]model.User
	events       map[string]model.Event
	reservations map[string]model.Reservation

	admitMu sync.Mutex
	admit   map[string]*sync.Mutex
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]model.User),
		events:       make(map[string]model.Event),
		reservations: make(map[string]model.Reservation),
		admit:        make(map[string]*sync.Mutex),
	}
}

// ─── Users ────────────────────────────────────────────────────────────────────

func (s *MemoryStore) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = *u
	return nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, model.ErrNotFound
}

// ─── Events ───────────────────────────────────────────────────────────────────

func (s *MemoryStore) CreateEvent(_ context.Context, ev *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.ID] = *ev
	return nil
}

func (s *MemoryStore) UpdateEvent(_ context.Context, id string, upd model.EventUpdate) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	if upd.Title != nil {
		ev.Title = *upd.Title
	}
	if upd.Description != nil {
		ev.Description = *upd.Description
	}
	if upd.DateTime != nil {
		ev.DateTime = *upd.DateTime
	}
	if upd.Location != nil {
		ev.Location = *upd.Location
	}
	if upd.Capacity != nil {
		ev.Capacity = *upd.Capacity
	}
	if upd.Status != nil {
		ev.Status = *upd.Status
	}
	s.events[id] = ev
	return &ev, nil
}

// DeleteEvent removes the event and every reservation referencing it. It
// holds the event's admission mutex for the duration so an in-flight
// admission cannot create a reservation against the vanishing event.
func (s *MemoryStore) DeleteEvent(_ context.Context, id string) error {
	lock := s.eventLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.events, id)
	for rid, r := range s.reservations {
		if r.EventID == id {
			delete(s.reservations, rid)
		}
	}
	return nil
}

func (s *MemoryStore) GetEventByID(_ context.Context, id string) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &ev, nil
}

func (s *MemoryStore) ListEvents(_ context.Context) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev)
	}
	return out, nil
}

// ─── Reservations ─────────────────────────────────────────────────────────────

func (s *MemoryStore) CreateReservation(_ context.Context, r *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[r.ID] = *r
	return nil
}

func (s *MemoryStore) GetReservationByID(_ context.Context, id string) (*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &r, nil
}

func (s *MemoryStore) UpdateReservationStatus(_ context.Context, id string, status model.ReservationStatus) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	r.Status = status
	s.reservations[id] = r
	return &r, nil
}

func (s *MemoryStore) ListReservations(_ context.Context) ([]model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		out = append(out, r)
	}
	return out, nil
}

func (s *MemoryStore) ListReservationsByUser(_ context.Context, userID string) ([]model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Reservation
	for _, r := range s.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListReservationsByEvent(_ context.Context, eventID string) ([]model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Reservation
	for _, r := range s.reservations {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) CountReservations(_ context.Context, eventID string, statuses ...model.ReservationStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.reservations {
		if r.EventID != eventID {
			continue
		}
		for _, st := range statuses {
			if r.Status == st {
				n++
				break
			}
		}
	}
	return n, nil
}

func (s *MemoryStore) FindActiveReservation(_ context.Context, userID, eventID string) (*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reservations {
		if r.UserID == userID && r.EventID == eventID && r.Active() {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

// ─── Admission scope ──────────────────────────────────────────────────────────

// eventLock returns the admission mutex for eventID, creating it on first use.
func (s *MemoryStore) eventLock(eventID string) *sync.Mutex {
	s.admitMu.Lock()
	defer s.admitMu.Unlock()
	lock, ok := s.admit[eventID]
	if !ok {
		lock = &sync.Mutex{}
		s.admit[eventID] = lock
	}
	return lock
}

// AdmitScope serializes fn against every other admission and delete on the
// same event. The map mutex is NOT held across fn, so fn may call any Store
// method; only same-event scopes block each other.
func (s *MemoryStore) AdmitScope(ctx context.Context, eventID string, fn AdmitFunc) error {
	lock := s.eventLock(eventID)
	lock.Lock()
	defer lock.Unlock()

	ev, err := s.GetEventByID(ctx, eventID)
	if err != nil {
		return err
	}
	return fn(s, ev)
}
