// Package model defines the core domain types for the event reservation system.
package model

import "time"

// Role distinguishes administrators from regular participants.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleParticipant Role = "PARTICIPANT"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "DRAFT"
	EventPublished EventStatus = "PUBLISHED"
	EventCanceled  EventStatus = "CANCELED"
)

// ReservationStatus is the state of a single seat reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationRefused   ReservationStatus = "REFUSED"
	ReservationCanceled  ReservationStatus = "CANCELED"
)

// ReservedStatuses is the status set that counts against an event's capacity.
// The admission check and the reserved-count shown on the admin dashboard must
// always use this same set.
var ReservedStatuses = []ReservationStatus{ReservationConfirmed, ReservationPending}

// User is an account that can sign in. Owned by the auth layer; the
// reservation core only reads id and role.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
}

// Event represents a reservable event created by an administrator.
// Events start in DRAFT and only accept reservations while PUBLISHED.
type Event struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	DateTime    time.Time   `json:"dateTime"`
	Location    string      `json:"location"`
	Capacity    int         `json:"capacity"`
	Status      EventStatus `json:"status"`
}

// Reservation is a participant's claim on one seat of an event.
type Reservation struct {
	ID        string            `json:"id"`
	EventID   string            `json:"eventId"`
	UserID    string            `json:"userId"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Active reports whether the reservation still blocks a new one for the same
// (user, event) pair.
func (r *Reservation) Active() bool {
	return r.Status != ReservationCanceled
}

// EventUpdate carries a partial event edit; nil fields are left unchanged.
type EventUpdate struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	DateTime    *time.Time   `json:"dateTime"`
	Location    *string      `json:"location"`
	Capacity    *int         `json:"capacity"`
	Status      *EventStatus `json:"status"`
}

// EventWithCount is an event annotated with how many seats are currently
// held (confirmed + pending), for the admin dashboard.
type EventWithCount struct {
	Event
	ReservedCount int `json:"reservedCount"`
}

// ReservationDetail is a reservation joined with its event and/or user for
// read-side listings. Joined fields are omitted when not requested.
type ReservationDetail struct {
	Reservation
	Event *Event `json:"event,omitempty"`
	User  *User  `json:"user,omitempty"`
}

// SignupRequest is the payload for creating an account.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// LoginRequest is the payload for authenticating.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Token string `json:"token"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DateTime    time.Time `json:"dateTime"`
	Location    string    `json:"location"`
	Capacity    int       `json:"capacity"`
}

// CreateReservationRequest is the payload for reserving a seat.
type CreateReservationRequest struct {
	EventID string `json:"eventId"`
}

// UpdateReservationStatusRequest is the admin payload for moving a
// reservation to a new status.
type UpdateReservationStatusRequest struct {
	Status ReservationStatus `json:"status"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
