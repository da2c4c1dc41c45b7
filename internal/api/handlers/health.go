package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

type CheckResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

type HealthChecker struct {
	db        Pinger
	version   string
	gitCommit string
	now       func() time.Time
}

func NewHealthChecker(db Pinger, version, gitCommit string) *HealthChecker {
	return &HealthChecker{db: db, version: version, gitCommit: gitCommit, now: time.Now}
}

// Healthz reports liveness only; it never touches dependencies.
func (h *HealthChecker) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthCheck{
		Status:    "ok",
		Version:   h.version,
		GitCommit: h.gitCommit,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// Readyz fails with 503 while the database is unreachable or the server is
// shutting down.
func (h *HealthChecker) Readyz(w http.ResponseWriter, r *http.Request) {
	if r.Context().Err() != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthCheck{Status: "shutting_down"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	db := h.checkDatabase(ctx)
	status, code := "ok", http.StatusOK
	if db.Status == "fail" {
		status, code = "unavailable", http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthCheck{
		Status:    status,
		Version:   h.version,
		GitCommit: h.gitCommit,
		Checks:    map[string]CheckResult{"database": db},
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	if h.db == nil {
		return CheckResult{Status: "fail", Message: "database pool not initialized"}
	}
	start := time.Now()
	err := h.db.Ping(ctx)
	latency := time.Since(start).Milliseconds()
	if err == nil {
		return CheckResult{Status: "pass", LatencyMs: latency}
	}

	message := "database ping failed"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		message = "database ping timed out"
	case strings.Contains(err.Error(), "connection refused"):
		message = "database connection refused"
	case strings.Contains(err.Error(), "authentication failed"):
		message = "database authentication failed"
	}
	return CheckResult{Status: "fail", Message: message, LatencyMs: latency}
}
