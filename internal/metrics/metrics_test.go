package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitIsRepeatable(t *testing.T) {
	require.NotPanics(t, func() {
		Init("v1.0.0", "abc123", "2026-01-30")
		Init("v1.0.1", "def456", "2026-02-01")
	})
	assert.Equal(t, 1, testutil.CollectAndCount(AppInfo))
	assert.Equal(t, float64(1), testutil.ToFloat64(AppInfo.WithLabelValues("v1.0.1", "def456", "2026-02-01")))
}

func TestHTTPMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMiddleware)
	r.Get("/api/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"msg":"Event not found"}`))
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/events/{id}", "404"))

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/events/{id}", "404"))
	assert.Equal(t, float64(3), after-before)
}

func TestHTTPMiddlewareDefaultsToOK(t *testing.T) {
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "200"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "200"))-before)
}

func TestStatusRecorderCountsBytes(t *testing.T) {
	rw := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	_, _ = rw.Write([]byte("Hello, World!"))
	rw.WriteHeader(http.StatusTeapot)

	assert.Equal(t, http.StatusOK, rw.status)
	assert.Equal(t, 13, rw.bytes)
}

func TestDBCollectorNilPool(t *testing.T) {
	c := NewDBCollector(nil)
	assert.NotPanics(t, func() {
		c.collect()
		c.Stop()
		c.Stop()
	})
}

func TestDBCollectorStopsOnContext(t *testing.T) {
	c := NewDBCollector(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop after context cancellation")
	}
}

func TestRecordQueryClassifiesErrors(t *testing.T) {
	before := testutil.ToFloat64(DBErrors.WithLabelValues("test_select", "timeout"))
	RecordQuery("test_select", time.Now(), nil)
	RecordQuery("test_select", time.Now(), errors.Join(errors.New("wrapped"), context.DeadlineExceeded))

	assert.Equal(t, float64(1), testutil.ToFloat64(DBErrors.WithLabelValues("test_select", "timeout"))-before)
}

func TestRecordBookingAndSignup(t *testing.T) {
	before := testutil.ToFloat64(BookingsTotal.WithLabelValues("duplicate"))
	RecordBooking("duplicate")
	assert.Equal(t, float64(1), testutil.ToFloat64(BookingsTotal.WithLabelValues("duplicate"))-before)

	signups := testutil.ToFloat64(UsersRegisteredTotal)
	RecordSignup()
	assert.Equal(t, float64(1), testutil.ToFloat64(UsersRegisteredTotal)-signups)
}

func TestRiverMetricsHook(t *testing.T) {
	hook := NewRiverMetricsHook()
	ctx := context.Background()
	const kind = "test_kind"

	require.NoError(t, hook.InsertBegin(ctx, &rivertype.JobInsertParams{Kind: kind}))
	assert.Equal(t, float64(1), testutil.ToFloat64(RiverJobsQueued.WithLabelValues(kind)))

	job := &rivertype.JobRow{ID: 42, Kind: kind}
	require.NoError(t, hook.WorkBegin(ctx, job))
	assert.Equal(t, float64(1), testutil.ToFloat64(RiverJobsInFlight.WithLabelValues(kind)))

	require.NoError(t, hook.WorkEnd(ctx, job, errors.New("boom")))
	assert.Equal(t, float64(0), testutil.ToFloat64(RiverJobsInFlight.WithLabelValues(kind)))
	assert.Equal(t, float64(1), testutil.ToFloat64(RiverJobsCompleted.WithLabelValues(kind, "error")))

	_, tracked := hook.started.Load(job.ID)
	assert.False(t, tracked)
}
