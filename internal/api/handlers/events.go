package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Togather-Foundation/booking/internal/api/middleware"
	"github.com/Togather-Foundation/booking/internal/api/pagination"
	"github.com/Togather-Foundation/booking/internal/api/problem"
	"github.com/Togather-Foundation/booking/internal/domain/events"
	"github.com/Togather-Foundation/booking/internal/validation"
)

type EventService interface {
	List(ctx context.Context, filters events.Filters, page events.Pagination) (events.ListResult, error)
	Get(ctx context.Context, id string) (*events.Event, error)
	Create(ctx context.Context, actorID string, in events.Input) (*events.Event, error)
	Update(ctx context.Context, actorID, id string, in events.Input) (*events.Event, error)
	Delete(ctx context.Context, actorID, id string) error
}

type EventsHandler struct {
	Service EventService
	Env     string
}

func NewEventsHandler(service EventService, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

type eventListResponse struct {
	Events []events.Event `json:"events"`
	Total  int            `json:"total"`
	Page   int            `json:"page"`
	Pages  int            `json:"pages"`
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := pagination.Parse(query)
	if err != nil {
		writeValidation(w, r, err, h.Env)
		return
	}

	result, err := h.Service.List(r.Context(), events.ParseFilters(query), events.Pagination{Page: page.Page, Limit: page.Limit})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	list := result.Events
	if list == nil {
		list = []events.Event{}
	}
	writeJSON(w, http.StatusOK, eventListResponse{
		Events: list,
		Total:  result.Total,
		Page:   page.Page,
		Pages:  pagination.TotalPages(result.Total, page.Limit),
	})
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", events.ErrNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	event, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in events.Input
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Create(r.Context(), actorID(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", events.ErrNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in events.Input
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Update(r.Context(), actorID(r), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", events.ErrNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), actorID(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Msg: "Event deleted"})
}

func (h *EventsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if validation.Is(err) {
		writeValidation(w, r, err, h.Env)
		return
	}
	status, msg := mapEventError(err)
	problem.Write(w, r, status, msg, err, h.Env)
}

func mapEventError(err error) (int, string) {
	if errors.Is(err, events.ErrNotFound) {
		return http.StatusNotFound, "Event not found"
	}
	return http.StatusInternalServerError, msgServerError
}

func actorID(r *http.Request) string {
	if user := middleware.CurrentUser(r); user != nil {
		return user.ID
	}
	return ""
}
