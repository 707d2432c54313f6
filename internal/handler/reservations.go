package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventops/eventops/internal/model"
	"github.com/eventops/eventops/internal/service"
)

// ReservationHandler holds the reservation and ticket endpoints.
type ReservationHandler struct {
	reservations *service.ReservationService
	tickets      *service.TicketService
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(reservations *service.ReservationService, tickets *service.TicketService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations, tickets: tickets}
}

// Create handles POST /reservations (participant). Runs the admission engine
// for the authenticated user against the requested event.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())

	var req model.CreateReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.reservations.Reserve(r.Context(), claims.UserID, req.EventID)
	if err != nil {
		writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ListMine handles GET /reservations/my (participant).
func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())

	out, err := h.reservations.ListMine(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list reservations")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ListAdmin handles GET /reservations/admin[?eventId=] (admin).
func (h *ReservationHandler) ListAdmin(w http.ResponseWriter, r *http.Request) {
	var (
		out []model.ReservationDetail
		err error
	)
	if eventID := r.URL.Query().Get("eventId"); eventID != "" {
		out, err = h.reservations.ListByEvent(r.Context(), eventID)
	} else {
		out, err = h.reservations.ListAll(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list reservations")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// UpdateStatus handles PATCH /reservations/{id}/status (admin). The target
// status is applied verbatim.
func (h *ReservationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req model.UpdateReservationStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	switch req.Status {
	case model.ReservationConfirmed, model.ReservationRefused, model.ReservationCanceled:
	default:
		writeError(w, http.StatusBadRequest, "status must be CONFIRMED, REFUSED, or CANCELED")
		return
	}

	res, err := h.reservations.SetStatus(r.Context(), service.Admin(), id, req.Status)
	if err != nil {
		writeDomainError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Cancel handles PATCH /reservations/{id}/cancel (participant). Participants
// may only cancel their own reservation.
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	id := chi.URLParam(r, "id")

	res, err := h.reservations.SetStatus(r.Context(), service.Participant(claims.UserID), id, model.ReservationCanceled)
	if err != nil {
		writeDomainError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Ticket handles GET /reservations/{id}/ticket (participant). Serves the PDF
// for the caller's own confirmed reservation.
func (h *ReservationHandler) Ticket(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	id := chi.URLParam(r, "id")

	pdf, err := h.tickets.Render(r.Context(), id, claims.UserID)
	if err != nil {
		writeDomainError(w, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="ticket-`+shortName(id)+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func shortName(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
