package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Togather-Foundation/booking/internal/domain/bookings"
)

// TxNotifier queues booking side effects on an open transaction.
type TxNotifier interface {
	BookingCreatedTx(ctx context.Context, tx pgx.Tx, booking bookings.Booking) error
}

// BookingTransactor commits a booking and its queued notification together.
type BookingTransactor struct {
	repo     *Repository
	notifier TxNotifier
}

var _ bookings.Transactor = (*BookingTransactor)(nil)

// NewBookingTransactor returns a transactor over repo. notifier may be nil.
func NewBookingTransactor(repo *Repository, notifier TxNotifier) *BookingTransactor {
	return &BookingTransactor{repo: repo, notifier: notifier}
}

func (t *BookingTransactor) InTx(ctx context.Context, fn func(context.Context, bookings.Repository, bookings.Notifier) error) error {
	return t.repo.WithTx(ctx, func(ctx context.Context, tx *Repository) error {
		var notifier bookings.Notifier
		if t.notifier != nil {
			notifier = txNotifier{tx: tx.tx, next: t.notifier}
		}
		return fn(ctx, tx.Bookings(), notifier)
	})
}

type txNotifier struct {
	tx   pgx.Tx
	next TxNotifier
}

func (n txNotifier) BookingCreated(ctx context.Context, booking bookings.Booking) error {
	return n.next.BookingCreatedTx(ctx, n.tx, booking)
}
