package handlers

import (
	"net/http"

	"github.com/Togather-Foundation/booking/internal/api/problem"
	"github.com/Togather-Foundation/booking/internal/domain/users"
)

// UsersHandler serves the admin user directory.
type UsersHandler struct {
	Service UserService
	Env     string
}

func NewUsersHandler(service UserService, env string) *UsersHandler {
	return &UsersHandler{Service: service, Env: env}
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	h.write(w, r, list, err)
}

func (h *UsersHandler) Admins(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListAdmins(r.Context())
	h.write(w, r, list, err)
}

func (h *UsersHandler) write(w http.ResponseWriter, r *http.Request, list []users.User, err error) {
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, msgServerError, err, h.Env)
		return
	}
	if list == nil {
		list = []users.User{}
	}
	writeJSON(w, http.StatusOK, list)
}
