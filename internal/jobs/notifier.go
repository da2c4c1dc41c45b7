package jobs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/Togather-Foundation/booking/internal/domain/bookings"
)

// Inserter is the slice of the River client the notifier needs.
type Inserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
	InsertTx(ctx context.Context, tx pgx.Tx, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// ConfirmationNotifier queues a confirmation email for each new booking.
type ConfirmationNotifier struct {
	client Inserter
	policy *RetryPolicy
}

func NewConfirmationNotifier(client Inserter, policy *RetryPolicy) *ConfirmationNotifier {
	if policy == nil {
		policy = NewRetryPolicy(0)
	}
	return &ConfirmationNotifier{client: client, policy: policy}
}

var _ bookings.Notifier = (*ConfirmationNotifier)(nil)

func (n *ConfirmationNotifier) BookingCreated(ctx context.Context, booking bookings.Booking) error {
	args := BookingConfirmationArgs{BookingID: booking.ID}
	if _, err := n.client.Insert(ctx, args, n.policy.InsertOpts(args.Kind())); err != nil {
		return fmt.Errorf("enqueue booking confirmation: %w", err)
	}
	return nil
}

// BookingCreatedTx queues the confirmation on tx, so the job only becomes
// visible if the booking commits. The insert runs under a savepoint: a
// failure is rolled back to it and leaves tx usable.
func (n *ConfirmationNotifier) BookingCreatedTx(ctx context.Context, tx pgx.Tx, booking bookings.Booking) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin savepoint: %w", err)
	}
	args := BookingConfirmationArgs{BookingID: booking.ID}
	if _, err := n.client.InsertTx(ctx, sp, args, n.policy.InsertOpts(args.Kind())); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback savepoint after %v: %w", err, rbErr)
		}
		return fmt.Errorf("enqueue booking confirmation: %w", err)
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}
