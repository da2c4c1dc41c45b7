package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Togather-Foundation/booking/internal/auth"
	"github.com/Togather-Foundation/booking/internal/config"
	"github.com/Togather-Foundation/booking/internal/domain/bookings"
	"github.com/Togather-Foundation/booking/internal/domain/events"
	"github.com/Togather-Foundation/booking/internal/domain/images"
	"github.com/Togather-Foundation/booking/internal/domain/users"
)

const (
	memberID = "01HZX3K9Q4V7T2M8N6P5R1S0AB"
	adminID  = "01HZX3K9Q4V7T2M8N6P5R1S0AC"
)

type stubUsers map[string]users.User

func (s stubUsers) Register(context.Context, users.RegisterParams) (*users.Session, error) {
	return nil, users.ErrDuplicateEmail
}

func (s stubUsers) Login(context.Context, users.LoginParams) (*users.Session, error) {
	return nil, users.ErrInvalidCredentials
}

func (s stubUsers) Promote(_ context.Context, _ users.User, id string) (*users.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	u.Role = auth.RoleAdmin
	return &u, nil
}

func (s stubUsers) List(context.Context) ([]users.User, error) {
	out := make([]users.User, 0, len(s))
	for _, u := range s {
		out = append(out, u)
	}
	return out, nil
}

func (s stubUsers) ListAdmins(context.Context) ([]users.User, error) {
	return []users.User{s[adminID]}, nil
}

func (s stubUsers) GetByID(_ context.Context, id string) (*users.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &u, nil
}

type stubEvents struct{}

func (stubEvents) List(context.Context, events.Filters, events.Pagination) (events.ListResult, error) {
	return events.ListResult{Events: []events.Event{}}, nil
}

func (stubEvents) Get(context.Context, string) (*events.Event, error) {
	return nil, events.ErrNotFound
}

func (stubEvents) Create(context.Context, string, events.Input) (*events.Event, error) {
	return &events.Event{ID: memberID}, nil
}

func (stubEvents) Update(context.Context, string, string, events.Input) (*events.Event, error) {
	return nil, events.ErrNotFound
}

func (stubEvents) Delete(context.Context, string, string) error {
	return events.ErrNotFound
}

type stubBookings struct{}

func (stubBookings) Book(_ context.Context, userID, eventID string) (*bookings.Booking, error) {
	return &bookings.Booking{ID: adminID, UserID: userID, EventID: eventID}, nil
}

func (stubBookings) ListMine(context.Context, string) ([]bookings.WithEvent, error) {
	return []bookings.WithEvent{}, nil
}

func (stubBookings) DeleteMine(context.Context, string, string) error {
	return bookings.ErrNotFound
}

type stubImages struct{}

func (stubImages) Store(context.Context, string, io.Reader) (string, error) { return memberID, nil }
func (stubImages) Get(context.Context, string) (*images.Image, error)        { return nil, images.ErrNotFound }
func (stubImages) MaxBytes() int64                                           { return 1 << 20 }

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type routerFixture struct {
	handler http.Handler
	tokens  *auth.TokenManager
}

func newFixture(t *testing.T) routerFixture {
	t.Helper()
	tokens := auth.NewTokenManager("router-test-secret-router-test-secret", "booking")
	cfg := config.Config{
		Environment: "test",
		Server:      config.ServerConfig{MaxBodyBytes: 1 << 20},
		RateLimit:   config.RateLimitConfig{},
	}
	r := NewRouter(Dependencies{
		Config: cfg,
		Logger: zerolog.Nop(),
		Tokens: tokens,
		Users: stubUsers{
			memberID: {ID: memberID, Name: "Member", Email: "member@example.com", Role: auth.RoleUser},
			adminID:  {ID: adminID, Name: "Admin", Email: "admin@example.com", Role: auth.RoleAdmin},
		},
		Events:   stubEvents{},
		Bookings: stubBookings{},
		Images:   stubImages{},
		DB:       okPinger{},
		Version:  "1.2.3",
	})
	t.Cleanup(r.Close)
	return routerFixture{handler: r.Handler, tokens: tokens}
}

func (f routerFixture) do(t *testing.T, method, path, body, userID string, role auth.Role) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		token, err := f.tokens.Issue(userID, role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func msgOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Msg string `json:"msg"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Msg
}

func TestRouter_PublicRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/events", "", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/healthz", "", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/version", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"1.2.3"`)
}

func TestRouter_AuthGate(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/bookings/my", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized, token missing", msgOf(t, rec))

	rec = f.do(t, http.MethodGet, "/api/bookings/my", "", memberID, auth.RoleUser)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_AdminGate(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/events", `{"name":"Conf"}`, memberID, auth.RoleUser)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin permissions required", msgOf(t, rec))

	rec = f.do(t, http.MethodGet, "/api/users", "", memberID, auth.RoleUser)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/users/admins", "", adminID, auth.RoleAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPatch, "/api/auth/promote/"+memberID, "", adminID, auth.RoleAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "member@example.com is now an admin.", msgOf(t, rec))
}

func TestRouter_UnknownRoute(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/nope", "", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", msgOf(t, rec))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestRouter_Metrics(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/api/events", "", "", "")

	rec := f.do(t, http.MethodGet, "/metrics", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `booking_http_requests_total{method="GET",path="/api/events"`)
}
