package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventops/eventops/internal/model"
	"github.com/eventops/eventops/internal/service"
)

// EventHandler holds the event lifecycle endpoints.
type EventHandler struct {
	events *service.EventService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events *service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// Create handles POST /events (admin). New events start in DRAFT.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ev, err := h.events.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// Update handles PATCH /events/{id} (admin). Partial edits, including status
// moves (publish, cancel) and capacity changes.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var upd model.EventUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ev, err := h.events.Update(r.Context(), id, upd)
	if err != nil {
		writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// Delete handles DELETE /events/{id} (admin). Cascades to reservations.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.events.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "deleted": "true"})
}

// Get handles GET /events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	ev, err := h.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// ListPublic handles GET /events — published events only.
func (h *EventHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListPublic(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// ListAdmin handles GET /events/admin — all events with reserved counts.
func (h *EventHandler) ListAdmin(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListAdmin(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []model.EventWithCount{}
	}
	writeJSON(w, http.StatusOK, events)
}
