package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Togather-Foundation/booking/internal/domain/bookings"
)

type BookingRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

var _ bookings.Repository = (*BookingRepository)(nil)

// Create relies on bookings_event_id_user_id_key to reject a second booking
// of the same event by the same user, including concurrent attempts.
func (r *BookingRepository) Create(ctx context.Context, b bookings.Booking) (_ *bookings.Booking, err error) {
	defer func(start time.Time) { recordQuery("bookings_create", start, err) }(time.Now())
	var created bookings.Booking
	err = pick(r.pool, r.tx).QueryRow(ctx, `
INSERT INTO bookings (id, event_id, user_id, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id, event_id, user_id, created_at`,
		b.ID, b.EventID, b.UserID, b.CreatedAt,
	).Scan(&created.ID, &created.EventID, &created.UserID, &created.CreatedAt)
	if err == nil {
		return &created, nil
	}

	if _, ok := constraintViolation(err, codeUniqueViolation); ok {
		return nil, bookings.ErrAlreadyBooked
	}
	if name, ok := constraintViolation(err, codeForeignKeyViolation); ok && name == "bookings_event_id_fkey" {
		return nil, bookings.ErrEventNotFound
	}
	return nil, fmt.Errorf("insert booking: %w", err)
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (_ *bookings.Booking, err error) {
	defer func(start time.Time) { recordQuery("bookings_get", start, err) }(time.Now())
	var b bookings.Booking
	err = pick(r.pool, r.tx).QueryRow(ctx,
		`SELECT id, event_id, user_id, created_at FROM bookings WHERE id = $1`, id,
	).Scan(&b.ID, &b.EventID, &b.UserID, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, bookings.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return &b, nil
}

// ListByUser returns the user's bookings with each event joined in.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) (_ []bookings.WithEvent, err error) {
	defer func(start time.Time) { recordQuery("bookings_list", start, err) }(time.Now())
	rows, err := pick(r.pool, r.tx).Query(ctx, `
SELECT b.id, b.user_id, b.created_at, `+eventColumns+`
  FROM bookings b
  JOIN events e ON e.id = b.event_id
 WHERE b.user_id = $1
 ORDER BY b.created_at, b.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := []bookings.WithEvent{}
	for rows.Next() {
		var (
			b  bookings.WithEvent
			er eventRow
		)
		targets := append([]any{&b.ID, &b.UserID, &b.CreatedAt}, er.targets()...)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		event, err := er.toEvent()
		if err != nil {
			return nil, err
		}
		b.Event = *event
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return out, nil
}

func (r *BookingRepository) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { recordQuery("bookings_delete", start, err) }(time.Now())
	tag, err := pick(r.pool, r.tx).Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bookings.ErrNotFound
	}
	return nil
}
