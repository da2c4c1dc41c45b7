package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/booking/internal/domain/events"
	"github.com/Togather-Foundation/booking/internal/domain/ids"
	"github.com/Togather-Foundation/booking/internal/validation"
)

// Outcome labels passed to the observer after each booking attempt.
const (
	OutcomeCreated       = "created"
	OutcomeDuplicate     = "duplicate"
	OutcomeEventNotFound = "event_not_found"
)

type Service struct {
	repo     Repository
	events   EventLookup
	notifier Notifier
	tx       Transactor
	observe  func(outcome string)
	logger   zerolog.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithTransactor makes Book insert the booking and queue its notification
// atomically.
func WithTransactor(t Transactor) Option {
	return func(s *Service) {
		s.tx = t
	}
}

func WithObserver(fn func(outcome string)) Option {
	return func(s *Service) {
		s.observe = fn
	}
}

func NewService(repo Repository, eventLookup EventLookup, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		events:  eventLookup,
		observe: func(string) {},
		logger:  logger.With().Str("component", "bookings").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Book reserves eventID for userID. Uniqueness is enforced by the store, so
// two concurrent calls for the same pair yield exactly one booking.
func (s *Service) Book(ctx context.Context, userID, eventID string) (*Booking, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, validation.FieldError{Field: "eventId", Message: "is required"}
	}
	canonical, err := ids.Parse(eventID)
	if err != nil {
		return nil, validation.FieldError{Field: "eventId", Message: "must be a valid id"}
	}

	if _, err := s.events.GetByID(ctx, canonical); err != nil {
		if errors.Is(err, events.ErrNotFound) {
			s.observe(OutcomeEventNotFound)
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("load event: %w", err)
	}

	pending := Booking{
		ID:        ids.New(),
		EventID:   canonical,
		UserID:    userID,
		CreatedAt: s.now(),
	}
	var booking *Booking
	create := func(ctx context.Context, repo Repository, notifier Notifier) error {
		created, err := repo.Create(ctx, pending)
		if err != nil {
			return err
		}
		booking = created
		if notifier != nil {
			if err := notifier.BookingCreated(ctx, *created); err != nil {
				s.logger.Warn().Err(err).Str("booking_id", created.ID).Msg("booking notification not queued")
			}
		}
		return nil
	}
	if s.tx != nil {
		err = s.tx.InTx(ctx, create)
	} else {
		err = create(ctx, s.repo, s.notifier)
	}
	switch {
	case errors.Is(err, ErrAlreadyBooked):
		s.observe(OutcomeDuplicate)
		return nil, err
	case errors.Is(err, ErrEventNotFound):
		s.observe(OutcomeEventNotFound)
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.observe(OutcomeCreated)
	s.logger.Info().Str("booking_id", booking.ID).Str("event_id", booking.EventID).Str("user_id", userID).Msg("booking created")
	return booking, nil
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]WithEvent, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return list, nil
}

// DeleteMine cancels a booking owned by userID.
func (s *Service) DeleteMine(ctx context.Context, userID, bookingID string) error {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.UserID != userID {
		return ErrNotOwner
	}
	if err := s.repo.Delete(ctx, bookingID); err != nil {
		return err
	}
	s.logger.Info().Str("booking_id", bookingID).Str("user_id", userID).Msg("booking cancelled")
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}
