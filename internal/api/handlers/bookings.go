package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Togather-Foundation/booking/internal/api/middleware"
	"github.com/Togather-Foundation/booking/internal/api/problem"
	"github.com/Togather-Foundation/booking/internal/auth"
	"github.com/Togather-Foundation/booking/internal/domain/bookings"
	"github.com/Togather-Foundation/booking/internal/validation"
)

type BookingService interface {
	Book(ctx context.Context, userID, eventID string) (*bookings.Booking, error)
	ListMine(ctx context.Context, userID string) ([]bookings.WithEvent, error)
	DeleteMine(ctx context.Context, userID, bookingID string) error
}

type BookingsHandler struct {
	Service BookingService
	Env     string
}

func NewBookingsHandler(service BookingService, env string) *BookingsHandler {
	return &BookingsHandler{Service: service, Env: env}
}

type bookRequest struct {
	EventID string `json:"eventId"`
}

func (h *BookingsHandler) Book(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		problem.Write(w, r, http.StatusUnauthorized, "Not authorized, token missing", auth.ErrMissingToken, h.Env)
		return
	}
	var req bookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}

	booking, err := h.Service.Book(r.Context(), user.ID, req.EventID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *BookingsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		problem.Write(w, r, http.StatusUnauthorized, "Not authorized, token missing", auth.ErrMissingToken, h.Env)
		return
	}
	list, err := h.Service.ListMine(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []bookings.WithEvent{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *BookingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		problem.Write(w, r, http.StatusUnauthorized, "Not authorized, token missing", auth.ErrMissingToken, h.Env)
		return
	}
	id, err := pathID(r, "id", bookings.ErrNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Service.DeleteMine(r.Context(), user.ID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Msg: "Booking deleted successfully"})
}

func (h *BookingsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if validation.Is(err) {
		writeValidation(w, r, err, h.Env)
		return
	}
	status, msg := mapBookingError(err)
	problem.Write(w, r, status, msg, err, h.Env)
}

func mapBookingError(err error) (int, string) {
	switch {
	case errors.Is(err, bookings.ErrAlreadyBooked):
		return http.StatusBadRequest, "You have already booked this event."
	case errors.Is(err, bookings.ErrEventNotFound):
		return http.StatusNotFound, "Event not found"
	case errors.Is(err, bookings.ErrNotFound):
		return http.StatusNotFound, "Booking not found"
	case errors.Is(err, bookings.ErrNotOwner):
		return http.StatusUnauthorized, "Not authorized to delete this booking"
	default:
		return http.StatusInternalServerError, msgServerError
	}
}
