package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Togather-Foundation/booking/internal/domain/events"
)

type EventRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

var _ events.Repository = (*EventRepository)(nil)

const eventColumns = `e.id, e.name, e.description, e.category, e.venue, e.date, e.price::text, e.image, e.tags, e.created_at, e.updated_at`

// eventRow holds an events row while the numeric price is still text.
type eventRow struct {
	event events.Event
	price string
}

func (row *eventRow) targets() []any {
	e := &row.event
	return []any{&e.ID, &e.Name, &e.Description, &e.Category, &e.Venue, &e.Date, &row.price, &e.Image, &e.Tags, &e.CreatedAt, &e.UpdatedAt}
}

func (row *eventRow) toEvent() (*events.Event, error) {
	price, err := decimal.NewFromString(row.price)
	if err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}
	e := row.event
	e.Price = price
	if e.Tags == nil {
		e.Tags = []string{}
	}
	return &e, nil
}

func readEvent(row pgx.Row) (*events.Event, error) {
	var er eventRow
	if err := row.Scan(er.targets()...); err != nil {
		return nil, err
	}
	return er.toEvent()
}

// List pages through events ordered by date. The page and the total count
// are fetched concurrently when not inside a transaction.
func (r *EventRepository) List(ctx context.Context, filters events.Filters, page events.Pagination) (_ events.ListResult, err error) {
	defer func(start time.Time) { recordQuery("events_list", start, err) }(time.Now())
	var tags any
	if len(filters.Tags) > 0 {
		tags = filters.Tags
	}
	limit := page.Limit
	if limit <= 0 {
		limit = 10
	}

	const where = `
 WHERE ($1 = '' OR e.category = $1)
   AND (coalesce(cardinality($2::text[]), 0) = 0 OR e.tags && $2::text[])`

	var result events.ListResult

	fetchPage := func(ctx context.Context) error {
		rows, err := pick(r.pool, r.tx).Query(ctx, `
SELECT `+eventColumns+`
  FROM events e`+where+`
 ORDER BY e.date, e.id
 LIMIT $3 OFFSET $4`, filters.Category, tags, limit, page.Offset())
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		defer rows.Close()

		list := []events.Event{}
		for rows.Next() {
			e, err := readEvent(rows)
			if err != nil {
				return fmt.Errorf("scan event: %w", err)
			}
			list = append(list, *e)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate events: %w", err)
		}
		result.Events = list
		return nil
	}

	fetchTotal := func(ctx context.Context) error {
		var total int
		if err := pick(r.pool, r.tx).QueryRow(ctx, `SELECT count(*) FROM events e`+where, filters.Category, tags).Scan(&total); err != nil {
			return fmt.Errorf("count events: %w", err)
		}
		result.Total = total
		return nil
	}

	if r.tx != nil {
		// A transaction is bound to one connection; run sequentially.
		if err := fetchPage(ctx); err != nil {
			return events.ListResult{}, err
		}
		if err := fetchTotal(ctx); err != nil {
			return events.ListResult{}, err
		}
		return result, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return fetchPage(gctx) })
	g.Go(func() error { return fetchTotal(gctx) })
	if err := g.Wait(); err != nil {
		return events.ListResult{}, err
	}
	return result, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (_ *events.Event, err error) {
	defer func(start time.Time) { recordQuery("events_get", start, err) }(time.Now())
	row := pick(r.pool, r.tx).QueryRow(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id)
	return oneEvent(row)
}

func (r *EventRepository) Create(ctx context.Context, e events.Event) (_ *events.Event, err error) {
	defer func(start time.Time) { recordQuery("events_create", start, err) }(time.Now())
	row := pick(r.pool, r.tx).QueryRow(ctx, `
INSERT INTO events AS e (id, name, description, category, venue, date, price, image, tags, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, $10, $11)
RETURNING `+eventColumns,
		e.ID, e.Name, e.Description, e.Category, e.Venue, e.Date, e.Price.String(), e.Image, nonNilTags(e.Tags), e.CreatedAt, e.UpdatedAt,
	)
	created, err := readEvent(row)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return created, nil
}

func (r *EventRepository) Update(ctx context.Context, e events.Event) (_ *events.Event, err error) {
	defer func(start time.Time) { recordQuery("events_update", start, err) }(time.Now())
	row := pick(r.pool, r.tx).QueryRow(ctx, `
UPDATE events AS e
   SET name = $2, description = $3, category = $4, venue = $5, date = $6,
       price = $7::numeric, image = $8, tags = $9, updated_at = $10
 WHERE e.id = $1
RETURNING `+eventColumns,
		e.ID, e.Name, e.Description, e.Category, e.Venue, e.Date, e.Price.String(), e.Image, nonNilTags(e.Tags), e.UpdatedAt,
	)
	return oneEvent(row)
}

func (r *EventRepository) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { recordQuery("events_delete", start, err) }(time.Now())
	tag, err := pick(r.pool, r.tx).Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func oneEvent(row pgx.Row) (*events.Event, error) {
	e, err := readEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, events.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
