package model

import "errors"

// Domain errors surfaced by the reservation core and its collaborators.
// Handlers map these to HTTP statuses with errors.Is.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEventNotPublished is returned when reserving against an event that
	// is still in draft or has been canceled.
	ErrEventNotPublished = errors.New("cannot reserve an event that is not published")

	// ErrDuplicateReservation is returned when the user already holds an
	// active (non-canceled) reservation for the event.
	ErrDuplicateReservation = errors.New("an active reservation for this event already exists")

	// ErrEventFull is returned when an event has no remaining capacity.
	ErrEventFull = errors.New("event is fully booked")

	// ErrForbidden is returned when a participant acts on a reservation they
	// do not own.
	ErrForbidden = errors.New("cannot act on another user's reservation")

	// ErrCancelOnly is returned when a participant requests any status
	// transition other than canceling their own reservation.
	ErrCancelOnly = errors.New("participants may only cancel their reservation")

	// ErrEmailTaken is returned on signup with an already registered email.
	ErrEmailTaken = errors.New("email already in use")

	// ErrInvalidCredentials is returned on login with a bad email or password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTicketUnavailable is returned when requesting a ticket for a
	// reservation that is not confirmed.
	ErrTicketUnavailable = errors.New("ticket is only available for confirmed reservations")
)
