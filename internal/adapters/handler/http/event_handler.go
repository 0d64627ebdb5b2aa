package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

type EventHandler struct {
	service ports.EventService
	logger  *slog.Logger
}

func NewEventHandler(service ports.EventService, logger *slog.Logger) *EventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandler{
		service: service,
		logger:  logger,
	}
}

type eventRequest struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Category           string   `json:"category"`
	Outcomes           []string `json:"outcomes"`
	Outcome1           string   `json:"outcome1"`
	Outcome2           string   `json:"outcome2"`
	ResolutionSource   string   `json:"resolution_source"`
	ResolutionDateTime string   `json:"resolution_date_time"`
}

func (req eventRequest) draft() ports.EventDraft {
	outcomes := req.Outcomes
	if len(outcomes) == 0 && (req.Outcome1 != "" || req.Outcome2 != "") {
		outcomes = []string{req.Outcome1, req.Outcome2}
	}
	return ports.EventDraft{
		Title:              req.Title,
		Description:        req.Description,
		Category:           req.Category,
		Outcomes:           outcomes,
		ResolutionSource:   req.ResolutionSource,
		ResolutionDateTime: req.ResolutionDateTime,
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

// CreateEvent godoc
// @Summary      Creates a prediction event
// @Description  The event starts as pending and must be approved by an admin before it accepts votes. Either `outcomes` or the legacy `outcome1`/`outcome2` pair may be sent.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        event  body  eventRequest  true  "Event"
// @Success      201
// @Failure      400
// @Failure      401
// @Failure      409
// @Router       /events [post]
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	event, err := h.service.Create(r.Context(), IdentityFrom(r.Context()), req.draft())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListEvents godoc
// @Summary      Lists events
// @Description  Admins see every event, signed-in users see their own, anonymous callers may only ask for `status=approved`.
// @Tags         events
// @Produce      json
// @Param        status  query  string  false  "pending, approved or rejected"
// @Success      200
// @Failure      400
// @Failure      401
// @Router       /events [get]
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	input := ports.ListEventsInput{Status: r.URL.Query().Get("status")}

	events, err := h.service.List(r.Context(), IdentityFrom(r.Context()), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(events))
}

// ListVotable godoc
// @Summary      Lists events open for voting
// @Tags         events
// @Produce      json
// @Success      200
// @Router       /events/votable [get]
func (h *EventHandler) ListVotable(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListVotable(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(events))
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r, h.logger)
	if !ok {
		return
	}

	event, err := h.service.Get(r.Context(), IdentityFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r, h.logger)
	if !ok {
		return
	}
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	event, err := h.service.Update(r.Context(), IdentityFrom(r.Context()), id, req.draft())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// SetStatus godoc
// @Summary      Approves or rejects an event
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        id      path  string         true  "Event ID"
// @Param        status  body  statusRequest  true  "approved or rejected"
// @Success      200
// @Failure      400
// @Failure      401
// @Failure      403
// @Failure      404
// @Router       /events/{id}/status [patch]
func (h *EventHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r, h.logger)
	if !ok {
		return
	}
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	event, err := h.service.SetStatus(r.Context(), IdentityFrom(r.Context()), id, req.Status)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func eventID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, logger, domain.ErrInvalidEventID)
		return uuid.Nil, false
	}
	return id, true
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
