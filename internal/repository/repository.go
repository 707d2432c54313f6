// Package repository provides the keyed record store behind the reservation
// core, with an in-memory implementation and a PostgreSQL implementation.
package repository

import (
	"context"

	"github.com/eventops/eventops/internal/model"
)

// AdmitFunc runs inside a per-event admission scope. tx sees the store state
// the scope was opened against and its writes commit atomically with the
// scope; ev is the event the scope is keyed on.
type AdmitFunc func(tx Store, ev *model.Event) error

// Store is the opaque record store the reservation core operates on. Lookups
// return model.ErrNotFound for absent records, except FindActiveReservation
// which returns (nil, nil) when no active reservation exists.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// Events. DeleteEvent cascades: every reservation referencing the event
	// is removed in the same atomic step, so no orphan reservation survives.
	CreateEvent(ctx context.Context, ev *model.Event) error
	UpdateEvent(ctx context.Context, id string, upd model.EventUpdate) (*model.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	GetEventByID(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)

	// Reservations.
	CreateReservation(ctx context.Context, r *model.Reservation) error
	GetReservationByID(ctx context.Context, id string) (*model.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id string, status model.ReservationStatus) (*model.Reservation, error)
	ListReservations(ctx context.Context) ([]model.Reservation, error)
	ListReservationsByUser(ctx context.Context, userID string) ([]model.Reservation, error)
	ListReservationsByEvent(ctx context.Context, eventID string) ([]model.Reservation, error)
	CountReservations(ctx context.Context, eventID string, statuses ...model.ReservationStatus) (int, error)
	FindActiveReservation(ctx context.Context, userID, eventID string) (*model.Reservation, error)

	// AdmitScope resolves the event and runs fn under per-event mutual
	// exclusion: two scopes for the same event never interleave, scopes for
	// different events proceed in parallel. Returns model.ErrNotFound when
	// the event does not exist; any error from fn aborts the scope without
	// leaving partial state.
	AdmitScope(ctx context.Context, eventID string, fn AdmitFunc) error
}
