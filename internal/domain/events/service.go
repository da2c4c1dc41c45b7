package events

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Togather-Foundation/booking/internal/audit"
	"github.com/Togather-Foundation/booking/internal/domain/ids"
	"github.com/Togather-Foundation/booking/internal/validation"
)

const maxNameLength = 500

// Prices are stored as NUMERIC(12,2).
const priceScale = 2

var maxPrice = decimal.New(1, 10)

type Service struct {
	repo   Repository
	audit  *audit.Logger
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, auditLogger *audit.Logger, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		audit:  auditLogger,
		logger: logger.With().Str("component", "events").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) List(ctx context.Context, filters Filters, page Pagination) (ListResult, error) {
	result, err := s.repo.List(ctx, filters, page)
	if err != nil {
		return ListResult{}, fmt.Errorf("list events: %w", err)
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates input and stores a new event. Name, date and price are
// required.
func (s *Service) Create(ctx context.Context, actorID string, in Input) (*Event, error) {
	var errs validation.Errors
	if in.Name == nil {
		errs = append(errs, validation.FieldError{Field: "name", Message: "is required"})
	}
	if in.Date == nil {
		errs = append(errs, validation.FieldError{Field: "date", Message: "is required"})
	}
	if in.Price == nil {
		errs = append(errs, validation.FieldError{Field: "price", Message: "is required"})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	now := s.now()
	event := Event{ID: ids.New(), CreatedAt: now, UpdatedAt: now}
	in.apply(&event)
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.audit.Success("event.create", actorID, "event", created.ID, map[string]string{"name": created.Name})
	s.logger.Info().Str("event_id", created.ID).Msg("event created")
	return created, nil
}

// Update applies the fields present in input. Absent fields, tags included,
// keep their stored value.
func (s *Service) Update(ctx context.Context, actorID, id string, in Input) (*Event, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	in.apply(existing)
	existing.UpdatedAt = s.now()
	if err := validateEvent(*existing); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, *existing)
	if err != nil {
		return nil, err
	}

	s.audit.Success("event.update", actorID, "event", updated.ID, nil)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Success("event.delete", actorID, "event", id, nil)
	s.logger.Info().Str("event_id", id).Msg("event deleted")
	return nil
}

func validateEvent(e Event) error {
	var errs validation.Errors
	if e.Name == "" {
		errs = append(errs, validation.FieldError{Field: "name", Message: "cannot be empty"})
	} else if len(e.Name) > maxNameLength {
		errs = append(errs, validation.FieldError{Field: "name", Message: "exceeds maximum length of 500 characters"})
	}
	if e.Date.IsZero() {
		errs = append(errs, validation.FieldError{Field: "date", Message: "is required"})
	}
	switch {
	case e.Price.IsNegative():
		errs = append(errs, validation.FieldError{Field: "price", Message: "must not be negative"})
	case e.Price.GreaterThanOrEqual(maxPrice):
		errs = append(errs, validation.FieldError{Field: "price", Message: "must be less than 10000000000"})
	case !e.Price.Equal(e.Price.Round(priceScale)):
		errs = append(errs, validation.FieldError{Field: "price", Message: "must have at most 2 decimal places"})
	}
	if e.Image != "" && !ids.Valid(e.Image) {
		if err := validation.URL(e.Image, "image"); err != nil {
			errs = append(errs, validation.FieldError{Field: "image", Message: "must be an image id or an http(s) URL"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ParseFilters reads the category and tags query parameters.
func ParseFilters(values url.Values) Filters {
	filters := Filters{Category: strings.TrimSpace(values.Get("category"))}
	if tags := SplitTags(values.Get("tags")); len(tags) > 0 {
		filters.Tags = tags
	}
	return filters
}
