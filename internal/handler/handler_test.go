package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eventops/eventops/internal/model"
	"github.com/eventops/eventops/internal/repository"
	"github.com/eventops/eventops/internal/service"
)

// newTestServer wires the full stack against an in-memory store, mirroring
// the router built in cmd/server.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := repository.NewMemoryStore()
	log := zap.NewNop()

	authSvc := service.NewAuthService(store, service.AuthConfig{
		JWTSecret: "test-secret", TokenTTL: time.Hour, BcryptCost: 4,
	}, log)
	eventSvc := service.NewEventService(store, log)
	reservationSvc := service.NewReservationService(store, log)
	ticketSvc := service.NewTicketService(store)

	authHandler := NewAuthHandler(authSvc)
	eventHandler := NewEventHandler(eventSvc)
	reservationHandler := NewReservationHandler(reservationSvc, ticketSvc)

	r := chi.NewRouter()
	r.Get("/health", HealthCheck)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
	})

	authed := Authenticator(authSvc)
	adminOnly := RequireRole(model.RoleAdmin)
	participantOnly := RequireRole(model.RoleParticipant)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", eventHandler.ListPublic)
		r.Get("/{id}", eventHandler.Get)
		r.Group(func(r chi.Router) {
			r.Use(authed, adminOnly)
			r.Get("/admin", eventHandler.ListAdmin)
			r.Post("/", eventHandler.Create)
			r.Patch("/{id}", eventHandler.Update)
			r.Delete("/{id}", eventHandler.Delete)
		})
	})
	r.Route("/reservations", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authed, participantOnly)
			r.Post("/", reservationHandler.Create)
			r.Get("/my", reservationHandler.ListMine)
			r.Patch("/{id}/cancel", reservationHandler.Cancel)
			r.Get("/{id}/ticket", reservationHandler.Ticket)
		})
		r.Group(func(r chi.Router) {
			r.Use(authed, adminOnly)
			r.Get("/admin", reservationHandler.ListAdmin)
			r.Patch("/{id}/status", reservationHandler.UpdateStatus)
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func signup(t *testing.T, srv *httptest.Server, email string, role model.Role) model.AuthResponse {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/auth/signup", "", model.SignupRequest{
		Email: email, Password: "secret1", Role: role,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[model.AuthResponse](t, resp)
}

func TestReservationFlow(t *testing.T) {
	srv := newTestServer(t)

	admin := signup(t, srv, "admin@example.com", model.RoleAdmin)
	alice := signup(t, srv, "alice@example.com", model.RoleParticipant)
	bob := signup(t, srv, "bob@example.com", model.RoleParticipant)

	// Admin creates and publishes a 1-seat event.
	resp := doJSON(t, http.MethodPost, srv.URL+"/events", admin.Token, model.CreateEventRequest{
		Title: "Release Night", DateTime: time.Now().Add(24 * time.Hour),
		Location: "HQ", Capacity: 1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	ev := decodeBody[model.Event](t, resp)
	require.Equal(t, model.EventDraft, ev.Status)

	// Draft events are not reservable.
	resp = doJSON(t, http.MethodPost, srv.URL+"/reservations", alice.Token,
		model.CreateReservationRequest{EventID: ev.ID})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPatch, srv.URL+"/events/"+ev.ID, admin.Token,
		map[string]any{"status": "PUBLISHED"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Alice takes the only seat.
	resp = doJSON(t, http.MethodPost, srv.URL+"/reservations", alice.Token,
		model.CreateReservationRequest{EventID: ev.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reservation := decodeBody[model.Reservation](t, resp)
	require.Equal(t, model.ReservationPending, reservation.Status)

	// Duplicate and full are distinct conflicts.
	resp = doJSON(t, http.MethodPost, srv.URL+"/reservations", alice.Token,
		model.CreateReservationRequest{EventID: ev.ID})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, http.MethodPost, srv.URL+"/reservations", bob.Token,
		model.CreateReservationRequest{EventID: ev.ID})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Admin confirms; Bob cannot cancel Alice's reservation.
	resp = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/reservations/%s/status", srv.URL, reservation.ID),
		admin.Token, model.UpdateReservationStatusRequest{Status: model.ReservationConfirmed})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	confirmed := decodeBody[model.Reservation](t, resp)
	require.Equal(t, model.ReservationConfirmed, confirmed.Status)

	resp = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/reservations/%s/cancel", srv.URL, reservation.ID),
		bob.Token, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Alice downloads her ticket.
	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/reservations/%s/ticket", srv.URL, reservation.ID),
		alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	resp.Body.Close()

	// And cancels, freeing the seat for Bob.
	resp = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/reservations/%s/cancel", srv.URL, reservation.ID),
		alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/reservations", bob.Token,
		model.CreateReservationRequest{EventID: ev.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestAuthAndRoleGuards(t *testing.T) {
	srv := newTestServer(t)

	participant := signup(t, srv, "p@example.com", model.RoleParticipant)

	// No token.
	resp := doJSON(t, http.MethodPost, srv.URL+"/reservations", "", model.CreateReservationRequest{EventID: "x"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Wrong role.
	resp = doJSON(t, http.MethodPost, srv.URL+"/events", participant.Token, model.CreateEventRequest{
		Title: "Nope", DateTime: time.Now(), Capacity: 1,
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Garbage token.
	resp = doJSON(t, http.MethodGet, srv.URL+"/reservations/my", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestEventEndpointsPublicView(t *testing.T) {
	srv := newTestServer(t)
	admin := signup(t, srv, "admin@example.com", model.RoleAdmin)

	resp := doJSON(t, http.MethodPost, srv.URL+"/events", admin.Token, model.CreateEventRequest{
		Title: "Hidden Draft", DateTime: time.Now().Add(24 * time.Hour), Capacity: 5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	draft := decodeBody[model.Event](t, resp)

	// Drafts are invisible publicly but fetchable by id.
	resp = doJSON(t, http.MethodGet, srv.URL+"/events", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	public := decodeBody[[]model.Event](t, resp)
	require.Empty(t, public)

	resp = doJSON(t, http.MethodGet, srv.URL+"/events/"+draft.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Unknown id is a 404.
	resp = doJSON(t, http.MethodGet, srv.URL+"/events/does-not-exist", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Admin listing carries the reserved count field.
	resp = doJSON(t, http.MethodGet, srv.URL+"/events/admin", admin.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decodeBody[[]model.EventWithCount](t, resp)
	require.Len(t, listed, 1)
	require.Equal(t, 0, listed[0].ReservedCount)
}
