package jobs

import (
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
)

const JobKindBookingConfirmation = "booking_confirmation"

const (
	DefaultMaxAttempts             = 5
	BookingConfirmationMaxAttempts = 5
)

// RetryConfig controls per-kind retry behavior.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryPolicy implements River's ClientRetryPolicy with per-kind exponential backoff.
type RetryPolicy struct {
	Default RetryConfig
	ByKind  map[string]RetryConfig
}

// NewRetryPolicy returns the default policy. confirmationAttempts overrides
// the attempt budget for confirmation emails when positive.
func NewRetryPolicy(confirmationAttempts int) *RetryPolicy {
	if confirmationAttempts <= 0 {
		confirmationAttempts = BookingConfirmationMaxAttempts
	}
	return &RetryPolicy{
		Default: RetryConfig{
			MaxAttempts: DefaultMaxAttempts,
			BaseDelay:   30 * time.Second,
			MaxDelay:    30 * time.Minute,
		},
		ByKind: map[string]RetryConfig{
			JobKindBookingConfirmation: {
				MaxAttempts: confirmationAttempts,
				BaseDelay:   1 * time.Minute,
				MaxDelay:    1 * time.Hour,
			},
		},
	}
}

// NextRetry doubles the base delay on each attempt, capped at MaxDelay.
func (p *RetryPolicy) NextRetry(job *rivertype.JobRow) time.Time {
	cfg := p.configFor(job.Kind)
	if cfg.BaseDelay == 0 {
		return time.Now()
	}

	attempt := job.Attempt
	if attempt < 1 {
		attempt = 1
	}

	delay := time.Duration(float64(cfg.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}

	if job.AttemptedAt != nil {
		return job.AttemptedAt.Add(delay)
	}
	return time.Now().Add(delay)
}

// InsertOpts returns the insert options for a job kind under this policy.
func (p *RetryPolicy) InsertOpts(kind string) *river.InsertOpts {
	return &river.InsertOpts{MaxAttempts: p.configFor(kind).MaxAttempts}
}

func (p *RetryPolicy) configFor(kind string) RetryConfig {
	if p == nil {
		return RetryConfig{MaxAttempts: DefaultMaxAttempts, BaseDelay: 1 * time.Minute, MaxDelay: 1 * time.Hour}
	}
	if cfg, ok := p.ByKind[kind]; ok {
		return cfg
	}
	return p.Default
}

// ClientOptions configures the River client.
type ClientOptions struct {
	MaxWorkers int
	Policy     *RetryPolicy
	Logger     *slog.Logger
	Hooks      []rivertype.Hook
}

// NewClientConfig builds a River client configuration. A nil workers
// bundle yields an insert-only client.
func NewClientConfig(workers *river.Workers, opts ClientOptions) *river.Config {
	if opts.Policy == nil {
		opts.Policy = NewRetryPolicy(0)
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 5
	}

	cfg := &river.Config{
		RetryPolicy: opts.Policy,
		MaxAttempts: opts.Policy.Default.MaxAttempts,
		Hooks:       opts.Hooks,
	}
	if workers != nil {
		cfg.Workers = workers
		cfg.Queues = map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: opts.MaxWorkers},
		}
	}
	if opts.Logger != nil {
		cfg.Logger = opts.Logger
		cfg.ErrorHandler = NewErrorHandler(opts.Logger)
	}
	return cfg
}

// NewClient creates a River client using pgx v5.
func NewClient(pool *pgxpool.Pool, workers *river.Workers, opts ClientOptions) (*river.Client[pgx.Tx], error) {
	return river.NewClient(riverpgxv5.New(pool), NewClientConfig(workers, opts))
}
