package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/booking/internal/api"
	"github.com/Togather-Foundation/booking/internal/audit"
	"github.com/Togather-Foundation/booking/internal/auth"
	"github.com/Togather-Foundation/booking/internal/config"
	"github.com/Togather-Foundation/booking/internal/domain/bookings"
	"github.com/Togather-Foundation/booking/internal/domain/events"
	"github.com/Togather-Foundation/booking/internal/domain/images"
	"github.com/Togather-Foundation/booking/internal/domain/users"
	"github.com/Togather-Foundation/booking/internal/email"
	"github.com/Togather-Foundation/booking/internal/jobs"
	"github.com/Togather-Foundation/booking/internal/metrics"
	"github.com/Togather-Foundation/booking/internal/storage/postgres"
)

// application holds everything runServer has to start and stop.
type application struct {
	router *api.Router
	river  *river.Client[pgx.Tx]
	users  *users.Service
}

func buildApp(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool) (*application, error) {
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return nil, err
	}

	auditLogger := audit.NewLogger(logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)

	userService := users.NewService(repo.Users(), tokens, hasher, auditLogger, logger,
		users.WithSignupHook(metrics.RecordSignup))
	eventService := events.NewService(repo.Events(), auditLogger, logger)
	imageService := images.NewService(repo.Images(), cfg.Uploads.MaxImageBytes, logger)

	bookingOpts := []bookings.Option{bookings.WithObserver(metrics.RecordBooking)}

	var (
		riverClient  *river.Client[pgx.Tx]
		confirmation *jobs.BookingConfirmationWorker
	)
	if cfg.Jobs.Enabled {
		mailer, err := email.NewService(cfg.Email, logger)
		if err != nil {
			return nil, fmt.Errorf("email service: %w", err)
		}
		confirmation = &jobs.BookingConfirmationWorker{
			Events: eventService,
			Users:  userService,
			Mailer: mailer,
		}
		workers, err := jobs.NewWorkers(confirmation)
		if err != nil {
			return nil, err
		}
		policy := jobs.NewRetryPolicy(cfg.Jobs.RetryConfirmation)
		riverClient, err = jobs.NewClient(pool, workers, jobs.ClientOptions{
			MaxWorkers: cfg.Jobs.Workers,
			Policy:     policy,
			Logger:     riverLogger(cfg.Logging),
			Hooks:      []rivertype.Hook{metrics.NewRiverMetricsHook()},
		})
		if err != nil {
			return nil, fmt.Errorf("river client: %w", err)
		}
		notifier := jobs.NewConfirmationNotifier(riverClient, policy)
		bookingOpts = append(bookingOpts,
			bookings.WithNotifier(notifier),
			bookings.WithTransactor(postgres.NewBookingTransactor(repo, notifier)),
		)
	}

	bookingService := bookings.NewService(repo.Bookings(), repo.Events(), logger, bookingOpts...)
	if confirmation != nil {
		confirmation.Bookings = bookingService
	}

	router := api.NewRouter(api.Dependencies{
		Config:    cfg,
		Logger:    logger,
		Tokens:    tokens,
		Users:     userService,
		Events:    eventService,
		Bookings:  bookingService,
		Images:    imageService,
		DB:        pool,
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	})

	return &application{router: router, river: riverClient, users: userService}, nil
}

// bootstrapAdmin creates or promotes the configured admin account.
func (a *application) bootstrapAdmin(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	bootstrap := cfg.AdminBootstrap
	if !bootstrap.Enabled() {
		logger.Debug().Msg("admin bootstrap env vars not fully set; skipping")
		return nil
	}
	admin, err := a.users.EnsureAdmin(ctx, users.RegisterParams{
		Name:     bootstrap.Name,
		Email:    bootstrap.Email,
		Password: bootstrap.Password,
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	// Redact email in production to avoid PII in logs
	event := logger.Info().Str("user_id", admin.ID)
	if !cfg.IsProduction() {
		event = event.Str("email", admin.Email)
	}
	event.Msg("admin account ready")
	return nil
}

// riverLogger builds the slog logger River requires, at the configured level.
func riverLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug", "trace":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error", "fatal", "panic":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "console") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts)).With("component", "river")
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts)).With("component", "river")
}
