package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Togather-Foundation/booking/internal/domain/bookings"
	"github.com/Togather-Foundation/booking/internal/domain/events"
	"github.com/Togather-Foundation/booking/internal/domain/users"
	"github.com/Togather-Foundation/booking/internal/email"
)

func TestRetryPolicyBackoff(t *testing.T) {
	policy := NewRetryPolicy(0)
	attemptedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Minute},
		{1, time.Minute},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
		{10, time.Hour},
	}
	for _, tt := range tests {
		job := &rivertype.JobRow{Kind: JobKindBookingConfirmation, Attempt: tt.attempt, AttemptedAt: &attemptedAt}
		assert.Equal(t, attemptedAt.Add(tt.want), policy.NextRetry(job), "attempt %d", tt.attempt)
	}

	unknown := &rivertype.JobRow{Kind: "other", Attempt: 1, AttemptedAt: &attemptedAt}
	assert.Equal(t, attemptedAt.Add(30*time.Second), policy.NextRetry(unknown))
}

func TestRetryPolicyInsertOpts(t *testing.T) {
	assert.Equal(t, BookingConfirmationMaxAttempts, NewRetryPolicy(0).InsertOpts(JobKindBookingConfirmation).MaxAttempts)
	assert.Equal(t, 2, NewRetryPolicy(2).InsertOpts(JobKindBookingConfirmation).MaxAttempts)
	assert.Equal(t, DefaultMaxAttempts, NewRetryPolicy(2).InsertOpts("other").MaxAttempts)
}

func TestNewClientConfigInsertOnly(t *testing.T) {
	cfg := NewClientConfig(nil, ClientOptions{})
	assert.Nil(t, cfg.Workers)
	assert.Nil(t, cfg.Queues)
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)

	workers, err := NewWorkers(&BookingConfirmationWorker{})
	require.NoError(t, err)
	cfg = NewClientConfig(workers, ClientOptions{MaxWorkers: 3})
	assert.Equal(t, 3, cfg.Queues[river.QueueDefault].MaxWorkers)
}

type mockInserter struct {
	mock.Mock
}

func (m *mockInserter) Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error) {
	called := m.Called(ctx, args, opts)
	res, _ := called.Get(0).(*rivertype.JobInsertResult)
	return res, called.Error(1)
}

func (m *mockInserter) InsertTx(ctx context.Context, tx pgx.Tx, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error) {
	called := m.Called(ctx, tx, args, opts)
	res, _ := called.Get(0).(*rivertype.JobInsertResult)
	return res, called.Error(1)
}

// savepointTx records nested transaction calls. Methods not overridden panic
// through the nil embedded Tx.
type savepointTx struct {
	pgx.Tx
	parent    *savepointTx
	begun     int
	committed int
	rolled    int
}

func (s *savepointTx) Begin(context.Context) (pgx.Tx, error) {
	s.begun++
	return &savepointTx{parent: s}, nil
}

func (s *savepointTx) Commit(context.Context) error {
	s.parent.committed++
	return nil
}

func (s *savepointTx) Rollback(context.Context) error {
	s.parent.rolled++
	return nil
}

func TestConfirmationNotifierTx(t *testing.T) {
	inserter := &mockInserter{}
	inserter.On("InsertTx", mock.Anything, mock.AnythingOfType("*jobs.savepointTx"), BookingConfirmationArgs{BookingID: "b1"}, &river.InsertOpts{MaxAttempts: 3}).
		Return(&rivertype.JobInsertResult{}, nil).Once()
	inserter.On("InsertTx", mock.Anything, mock.Anything, BookingConfirmationArgs{BookingID: "b2"}, mock.Anything).
		Return(nil, errors.New("queue down")).Once()

	n := NewConfirmationNotifier(inserter, NewRetryPolicy(3))

	ok := &savepointTx{}
	require.NoError(t, n.BookingCreatedTx(context.Background(), ok, bookings.Booking{ID: "b1"}))
	assert.Equal(t, 1, ok.begun)
	assert.Equal(t, 1, ok.committed)
	assert.Zero(t, ok.rolled)

	failed := &savepointTx{}
	assert.ErrorContains(t, n.BookingCreatedTx(context.Background(), failed, bookings.Booking{ID: "b2"}), "queue down")
	assert.Equal(t, 1, failed.begun)
	assert.Zero(t, failed.committed)
	assert.Equal(t, 1, failed.rolled)

	inserter.AssertExpectations(t)
	inserter.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmationNotifier(t *testing.T) {
	inserter := &mockInserter{}
	inserter.On("Insert", mock.Anything, BookingConfirmationArgs{BookingID: "b1"}, &river.InsertOpts{MaxAttempts: 3}).
		Return(&rivertype.JobInsertResult{}, nil).Once()
	inserter.On("Insert", mock.Anything, BookingConfirmationArgs{BookingID: "b2"}, mock.Anything).
		Return(nil, errors.New("queue down")).Once()

	n := NewConfirmationNotifier(inserter, NewRetryPolicy(3))
	require.NoError(t, n.BookingCreated(context.Background(), bookings.Booking{ID: "b1"}))
	assert.ErrorContains(t, n.BookingCreated(context.Background(), bookings.Booking{ID: "b2"}), "queue down")
	inserter.AssertExpectations(t)
}

type fakeBookings map[string]bookings.Booking

func (f fakeBookings) Get(_ context.Context, id string) (*bookings.Booking, error) {
	b, ok := f[id]
	if !ok {
		return nil, bookings.ErrNotFound
	}
	return &b, nil
}

type fakeEvents map[string]events.Event

func (f fakeEvents) Get(_ context.Context, id string) (*events.Event, error) {
	e, ok := f[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	return &e, nil
}

type fakeUsers map[string]users.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*users.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &u, nil
}

type recordingMailer struct {
	to   string
	data email.BookingConfirmation
	err  error
}

func (r *recordingMailer) SendBookingConfirmation(_ context.Context, to string, data email.BookingConfirmation) error {
	r.to, r.data = to, data
	return r.err
}

func newWorker(mailer *recordingMailer) *BookingConfirmationWorker {
	return &BookingConfirmationWorker{
		Bookings: fakeBookings{"b1": {ID: "b1", EventID: "e1", UserID: "u1"}},
		Events: fakeEvents{"e1": {
			ID:    "e1",
			Name:  "Jazz Night",
			Venue: "Blue Hall",
			Date:  time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC),
			Price: decimal.RequireFromString("25.5"),
		}},
		Users:  fakeUsers{"u1": {ID: "u1", Name: "Ada", Email: "ada@example.com"}},
		Mailer: mailer,
	}
}

func TestBookingConfirmationWorkerSends(t *testing.T) {
	mailer := &recordingMailer{}
	w := newWorker(mailer)

	err := w.Work(context.Background(), &river.Job[BookingConfirmationArgs]{Args: BookingConfirmationArgs{BookingID: "b1"}})
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", mailer.to)
	assert.Equal(t, "Jazz Night", mailer.data.EventName)
	assert.Equal(t, "25.50", mailer.data.Price)
	assert.Equal(t, "b1", mailer.data.BookingID)
	assert.Contains(t, mailer.data.Date, "2026")
}

func TestBookingConfirmationWorkerCancelsWhenBookingGone(t *testing.T) {
	mailer := &recordingMailer{}
	w := newWorker(mailer)

	err := w.Work(context.Background(), &river.Job[BookingConfirmationArgs]{Args: BookingConfirmationArgs{BookingID: "missing"}})
	require.Error(t, err)

	var cancelErr *rivertype.JobCancelError
	assert.ErrorAs(t, err, &cancelErr)
	assert.Empty(t, mailer.to)
}

func TestBookingConfirmationWorkerRetriesMailerErrors(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("rate limited")}
	w := newWorker(mailer)

	err := w.Work(context.Background(), &river.Job[BookingConfirmationArgs]{Args: BookingConfirmationArgs{BookingID: "b1"}})
	require.Error(t, err)

	var cancelErr *rivertype.JobCancelError
	assert.False(t, errors.As(err, &cancelErr))
}
