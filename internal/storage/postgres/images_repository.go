package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Togather-Foundation/booking/internal/domain/images"
)

type ImageRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

var _ images.Repository = (*ImageRepository)(nil)

func (r *ImageRepository) Create(ctx context.Context, img images.Image) (err error) {
	defer func(start time.Time) { recordQuery("images_create", start, err) }(time.Now())
	_, err = pick(r.pool, r.tx).Exec(ctx, `
INSERT INTO images (id, filename, content_type, size_bytes, data, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		img.ID, img.Filename, img.ContentType, img.Size, img.Data, img.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

func (r *ImageRepository) GetByID(ctx context.Context, id string) (_ *images.Image, err error) {
	defer func(start time.Time) { recordQuery("images_get", start, err) }(time.Now())
	var img images.Image
	err = pick(r.pool, r.tx).QueryRow(ctx, `
SELECT id, filename, content_type, size_bytes, data, created_at
  FROM images
 WHERE id = $1`, id,
	).Scan(&img.ID, &img.Filename, &img.ContentType, &img.Size, &img.Data, &img.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, images.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	return &img, nil
}
