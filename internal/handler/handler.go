// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/lottos-app/lottos/internal/model"
	"github.com/lottos-app/lottos/internal/notify"
	"github.com/lottos-app/lottos/internal/service"
	"github.com/lottos-app/lottos/internal/store"
)

// Handler holds all HTTP handlers for the registration API.
type Handler struct {
	events    *service.Events
	users     *service.Users
	waitlist  *service.Waitlist
	lottery   *service.Lottery
	response  *service.Response
	lifecycle *service.LifecycleSweeper
	expiry    *service.ExpirySweeper
	log       notify.Log
	validate  *validator.Validate
}

// New constructs a Handler.
func New(
	events *service.Events,
	users *service.Users,
	waitlist *service.Waitlist,
	lottery *service.Lottery,
	response *service.Response,
	lifecycle *service.LifecycleSweeper,
	expiry *service.ExpirySweeper,
	log notify.Log,
) *Handler {
	return &Handler{
		events:    events,
		users:     users,
		waitlist:  waitlist,
		lottery:   lottery,
		response:  response,
		lifecycle: lifecycle,
		expiry:    expiry,
		log:       log,
		validate:  validator.New(),
	}
}

// Routes builds the router, middleware included.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger)

	r.Get("/health", HealthCheck)

	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Get("/{id}", h.GetEvent)
		r.Post("/{id}/waitlist", h.JoinWaitlist)
		r.Delete("/{id}/waitlist/{userID}", h.LeaveWaitlist)
		r.Post("/{id}/lottery", h.RunLottery)
		r.Post("/{id}/invitation/accept", h.AcceptInvitation)
		r.Post("/{id}/invitation/decline", h.DeclineInvitation)
	})

	r.Route("/sweeps", func(r chi.Router) {
		r.Post("/lifecycle", h.SweepLifecycle)
		r.Post("/selections", h.SweepSelections)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.CreateUser)
		r.Get("/{id}", h.GetUser)
		r.Get("/{id}/notifications", h.ListNotifications)
	})

	return r
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Unrecognised
// errors fall back to the given status.
func writeDomainError(w http.ResponseWriter, err error, fallback int) {
	var (
		notFound  *store.NotFoundError
		precond   *service.PreconditionError
		conflict  *store.ConflictError
		transport *store.TransportError
	)
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &precond):
		writeError(w, http.StatusConflict, precond.Error())
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, "operation conflicted with concurrent updates, please retry")
	case errors.As(err, &transport):
		writeError(w, http.StatusServiceUnavailable, "storage is unreachable, please retry later")
	default:
		writeError(w, fallback, err.Error())
	}
}

// ─── Events ───────────────────────────────────────────────────────────────────

// CreateEvent handles POST /events.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.events.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context())
	if err != nil {
		writeDomainError(w, err, http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// ─── Waitlist ─────────────────────────────────────────────────────────────────

// JoinWaitlist handles POST /events/{id}/waitlist.
func (h *Handler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	var req model.EntrantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.waitlist.Join(r.Context(), eventID, req.UserID); err != nil {
		writeDomainError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "joined"})
}

// LeaveWaitlist handles DELETE /events/{id}/waitlist/{userID}.
func (h *Handler) LeaveWaitlist(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userID")

	if err := h.waitlist.Leave(r.Context(), eventID, userID); err != nil {
		writeDomainError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// ─── Lottery & invitations ────────────────────────────────────────────────────

// RunLottery handles POST /events/{id}/lottery.
func (h *Handler) RunLottery(w http.ResponseWriter, r *http.Request) {
	result, err := h.lottery.Run(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// AcceptInvitation handles POST /events/{id}/invitation/accept.
func (h *Handler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.response.Accept, "accepted")
}

// DeclineInvitation handles POST /events/{id}/invitation/decline.
func (h *Handler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.response.Decline, "declined")
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, eventID, userID string) error, status string) {
	eventID := chi.URLParam(r, "id")

	var req model.EntrantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := op(r.Context(), eventID, req.UserID); err != nil {
		writeDomainError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// ─── Sweeps ───────────────────────────────────────────────────────────────────

// SweepLifecycle handles POST /sweeps/lifecycle.
func (h *Handler) SweepLifecycle(w http.ResponseWriter, r *http.Request) {
	corrected, err := h.lifecycle.Sweep(r.Context())
	if err != nil {
		writeDomainError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"corrected": corrected})
}

// SweepSelections handles POST /sweeps/selections.
func (h *Handler) SweepSelections(w http.ResponseWriter, r *http.Request) {
	report, err := h.expiry.Sweep(r.Context())
	if err != nil {
		writeDomainError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ─── Users & notifications ────────────────────────────────────────────────────

// CreateUser handles POST /users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// GetUser handles GET /users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ListNotifications handles GET /users/{id}/notifications.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	records, err := h.log.ByReceiver(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []notify.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
