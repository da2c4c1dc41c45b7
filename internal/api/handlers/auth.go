package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Togather-Foundation/booking/internal/api/middleware"
	"github.com/Togather-Foundation/booking/internal/api/problem"
	"github.com/Togather-Foundation/booking/internal/auth"
	"github.com/Togather-Foundation/booking/internal/domain/users"
	"github.com/Togather-Foundation/booking/internal/validation"
)

type UserService interface {
	Register(ctx context.Context, params users.RegisterParams) (*users.Session, error)
	Login(ctx context.Context, params users.LoginParams) (*users.Session, error)
	Promote(ctx context.Context, actor users.User, targetID string) (*users.User, error)
	List(ctx context.Context) ([]users.User, error)
	ListAdmins(ctx context.Context) ([]users.User, error)
}

type AuthHandler struct {
	Service UserService
	Env     string
}

func NewAuthHandler(service UserService, env string) *AuthHandler {
	return &AuthHandler{Service: service, Env: env}
}

type promoteResponse struct {
	Msg  string      `json:"msg"`
	User *users.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var params users.RegisterParams
	if err := decodeJSON(r, &params); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}

	session, err := h.Service.Register(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var params users.LoginParams
	if err := decodeJSON(r, &params); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}

	session, err := h.Service.Login(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *AuthHandler) Promote(w http.ResponseWriter, r *http.Request) {
	actor := middleware.CurrentUser(r)
	if actor == nil {
		problem.Write(w, r, http.StatusUnauthorized, "Not authorized, token missing", auth.ErrMissingToken, h.Env)
		return
	}
	targetID, err := pathID(r, "id", users.ErrNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.Service.Promote(r.Context(), *actor, targetID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, promoteResponse{Msg: user.Email + " is now an admin.", User: user})
}

func (h *AuthHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if validation.Is(err) {
		writeValidation(w, r, err, h.Env)
		return
	}
	status, msg := mapUserError(err)
	problem.Write(w, r, status, msg, err, h.Env)
}

func mapUserError(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrPasswordTooLong):
		return http.StatusBadRequest, "Password must be at most 72 bytes"
	case errors.Is(err, users.ErrDuplicateEmail):
		return http.StatusBadRequest, "Email already in use"
	case errors.Is(err, users.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, users.ErrSelfPromotion):
		return http.StatusBadRequest, "You’re already an admin!"
	case errors.Is(err, users.ErrNotFound):
		return http.StatusNotFound, "User not found"
	default:
		return http.StatusInternalServerError, msgServerError
	}
}
