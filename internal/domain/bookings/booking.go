package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/Togather-Foundation/booking/internal/domain/events"
)

var (
	ErrNotFound      = errors.New("booking not found")
	ErrEventNotFound = errors.New("event not found")
	ErrAlreadyBooked = errors.New("event already booked by user")
	ErrNotOwner      = errors.New("booking belongs to another user")
)

// Booking links one user to one event. The (event, user) pair is unique.
type Booking struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event"`
	UserID    string    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// WithEvent is a booking with its event expanded inline.
type WithEvent struct {
	ID        string       `json:"id"`
	Event     events.Event `json:"event"`
	UserID    string       `json:"user"`
	CreatedAt time.Time    `json:"createdAt"`
}

type Repository interface {
	// Create inserts a booking. It returns ErrAlreadyBooked when the user
	// already holds a booking for the event and ErrEventNotFound when the
	// event is gone.
	Create(ctx context.Context, booking Booking) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	ListByUser(ctx context.Context, userID string) ([]WithEvent, error)
	Delete(ctx context.Context, id string) error
}

type EventLookup interface {
	GetByID(ctx context.Context, id string) (*events.Event, error)
}

// Notifier is told about every new booking.
type Notifier interface {
	BookingCreated(ctx context.Context, booking Booking) error
}

// Transactor runs fn in a single transaction. The repository and notifier
// handed to fn are bound to it; notifier is nil when none is configured.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, repo Repository, notifier Notifier) error) error
}
