package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/eventops/eventops/internal/model"
)

func seedEvent(t *testing.T, s *MemoryStore, status model.EventStatus, capacity int) *model.Event {
	t.Helper()
	ev := &model.Event{
		ID:       uuid.New().String(),
		Title:    "Go Meetup",
		DateTime: time.Now().Add(48 * time.Hour),
		Location: "Room 101",
		Capacity: capacity,
		Status:   status,
	}
	require.NoError(t, s.CreateEvent(context.Background(), ev))
	return ev
}

func seedReservation(t *testing.T, s *MemoryStore, eventID, userID string, status model.ReservationStatus) *model.Reservation {
	t.Helper()
	r := &model.Reservation{
		ID:        uuid.New().String(),
		EventID:   eventID,
		UserID:    userID,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateReservation(context.Background(), r))
	return r
}

func TestDeleteEventCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	ev := seedEvent(t, s, model.EventPublished, 10)
	other := seedEvent(t, s, model.EventPublished, 10)

	r1 := seedReservation(t, s, ev.ID, "user-a", model.ReservationPending)
	r2 := seedReservation(t, s, ev.ID, "user-b", model.ReservationConfirmed)
	kept := seedReservation(t, s, other.ID, "user-a", model.ReservationPending)

	require.NoError(t, s.DeleteEvent(ctx, ev.ID))

	_, err := s.GetEventByID(ctx, ev.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.GetReservationByID(ctx, r1.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.GetReservationByID(ctx, r2.ID)
	require.ErrorIs(t, err, model.ErrNotFound)

	// Reservations for other events are untouched.
	got, err := s.GetReservationByID(ctx, kept.ID)
	require.NoError(t, err)
	require.Equal(t, other.ID, got.EventID)
}

func TestDeleteEventNotFound(t *testing.T) {
	s := NewMemoryStore()
	err := s.DeleteEvent(context.Background(), uuid.New().String())
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestFindActiveReservationIgnoresCanceled(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	ev := seedEvent(t, s, model.EventPublished, 10)

	seedReservation(t, s, ev.ID, "user-a", model.ReservationCanceled)
	found, err := s.FindActiveReservation(ctx, "user-a", ev.ID)
	require.NoError(t, err)
	require.Nil(t, found)

	active := seedReservation(t, s, ev.ID, "user-a", model.ReservationRefused)
	found, err = s.FindActiveReservation(ctx, "user-a", ev.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, active.ID, found.ID)
}

func TestCountReservationsFiltersStatuses(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	ev := seedEvent(t, s, model.EventPublished, 10)

	seedReservation(t, s, ev.ID, "u1", model.ReservationConfirmed)
	seedReservation(t, s, ev.ID, "u2", model.ReservationConfirmed)
	seedReservation(t, s, ev.ID, "u3", model.ReservationRefused)
	seedReservation(t, s, ev.ID, "u4", model.ReservationCanceled)
	seedReservation(t, s, ev.ID, "u5", model.ReservationPending)

	n, err := s.CountReservations(ctx, ev.ID, model.ReservedStatuses...)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	n, err = s.CountReservations(ctx, ev.ID, model.ReservationRefused)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestUpdateEventPartial(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	ev := seedEvent(t, s, model.EventDraft, 10)

	published := model.EventPublished
	capacity := 25
	updated, err := s.UpdateEvent(ctx, ev.ID, model.EventUpdate{
		Status:   &published,
		Capacity: &capacity,
	})
	require.NoError(t, err)
	require.Equal(t, model.EventPublished, updated.Status)
	require.Equal(t, 25, updated.Capacity)
	// Untouched fields survive.
	require.Equal(t, ev.Title, updated.Title)
	require.Equal(t, ev.Location, updated.Location)

	_, err = s.UpdateEvent(ctx, uuid.New().String(), model.EventUpdate{Status: &published})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestAdmitScopeEventNotFound(t *testing.T) {
	s := NewMemoryStore()
	called := false
	err := s.AdmitScope(context.Background(), uuid.New().String(), func(tx Store, ev *model.Event) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, model.ErrNotFound)
	require.False(t, called)
}

func TestAdmitScopePropagatesError(t *testing.T) {
	s := NewMemoryStore()
	ev := seedEvent(t, s, model.EventPublished, 1)

	sentinel := errors.New("rejected")
	err := s.AdmitScope(context.Background(), ev.ID, func(tx Store, got *model.Event) error {
		require.Equal(t, ev.ID, got.ID)
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
}

func TestAdmitScopeSerializesPerEvent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	ev := seedEvent(t, s, model.EventPublished, 100)

	// Scopes increment a plain int; without mutual exclusion this races.
	counter := 0
	done := make(chan struct{})
	for i := 0; i < 50; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_ = s.AdmitScope(ctx, ev.ID, func(tx Store, _ *model.Event) error {
				counter++
				return nil
			})
		}()
	}
	for i := 0; i < 50; i++ {
		<-done
	}
	require.Equal(t, 50, counter)
}
