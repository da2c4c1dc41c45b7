package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/riverqueue/river"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Togather-Foundation/booking/internal/domain/bookings"
	"github.com/Togather-Foundation/booking/internal/domain/events"
	"github.com/Togather-Foundation/booking/internal/domain/users"
	"github.com/Togather-Foundation/booking/internal/email"
	"github.com/Togather-Foundation/booking/internal/metrics"
	"github.com/Togather-Foundation/booking/internal/telemetry"
)

type BookingConfirmationArgs struct {
	BookingID string `json:"booking_id"`
}

func (BookingConfirmationArgs) Kind() string { return JobKindBookingConfirmation }

type BookingLookup interface {
	Get(ctx context.Context, id string) (*bookings.Booking, error)
}

type EventLookup interface {
	Get(ctx context.Context, id string) (*events.Event, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

type ConfirmationSender interface {
	SendBookingConfirmation(ctx context.Context, to string, data email.BookingConfirmation) error
}

// BookingConfirmationWorker emails the booking holder. Bookings, events or
// users removed before the job runs cancel the job instead of retrying.
type BookingConfirmationWorker struct {
	river.WorkerDefaults[BookingConfirmationArgs]
	Bookings BookingLookup
	Events   EventLookup
	Users    UserLookup
	Mailer   ConfirmationSender
}

func (w *BookingConfirmationWorker) Work(ctx context.Context, job *river.Job[BookingConfirmationArgs]) error {
	if job == nil {
		return fmt.Errorf("booking confirmation job missing")
	}
	ctx, span := telemetry.Tracer("booking/jobs").Start(ctx, "jobs.booking_confirmation")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", job.Args.BookingID))

	booking, err := w.Bookings.Get(ctx, job.Args.BookingID)
	if err != nil {
		return cancelIfGone(fmt.Errorf("load booking: %w", err), bookings.ErrNotFound)
	}
	event, err := w.Events.Get(ctx, booking.EventID)
	if err != nil {
		return cancelIfGone(fmt.Errorf("load event: %w", err), events.ErrNotFound)
	}
	user, err := w.Users.GetByID(ctx, booking.UserID)
	if err != nil {
		return cancelIfGone(fmt.Errorf("load user: %w", err), users.ErrNotFound)
	}

	err = w.Mailer.SendBookingConfirmation(ctx, user.Email, email.BookingConfirmation{
		Name:      user.Name,
		EventName: event.Name,
		Venue:     event.Venue,
		Date:      event.Date.Format("Monday, 2 January 2006 15:04 MST"),
		Price:     event.Price.StringFixed(2),
		BookingID: booking.ID,
	})
	if err != nil {
		metrics.ConfirmationEmailsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.ConfirmationEmailsTotal.WithLabelValues("sent").Inc()
	return nil
}

func cancelIfGone(err, notFound error) error {
	if errors.Is(err, notFound) {
		return river.JobCancel(err)
	}
	return err
}

// NewWorkers registers every worker the service runs.
func NewWorkers(confirmation *BookingConfirmationWorker) (*river.Workers, error) {
	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, confirmation); err != nil {
		return nil, fmt.Errorf("register %s worker: %w", JobKindBookingConfirmation, err)
	}
	return workers, nil
}
