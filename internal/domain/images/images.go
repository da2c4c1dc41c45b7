package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/booking/internal/domain/ids"
	"github.com/Togather-Foundation/booking/internal/validation"
)

// DefaultMaxBytes caps an uploaded image at 5 MiB.
const DefaultMaxBytes = 5 << 20

var (
	ErrNotFound = errors.New("image not found")
	ErrEmpty    = errors.New("no file uploaded")
	ErrTooLarge = errors.New("image too large")
)

type Image struct {
	ID          string
	Filename    string
	ContentType string
	Size        int
	Data        []byte
	CreatedAt   time.Time
}

type Repository interface {
	Create(ctx context.Context, image Image) error
	GetByID(ctx context.Context, id string) (*Image, error)
}

type Service struct {
	repo     Repository
	maxBytes int64
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, maxBytes int64, logger zerolog.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{
		repo:     repo,
		maxBytes: maxBytes,
		logger:   logger.With().Str("component", "images").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Store reads the upload, checks that its bytes are an image and persists
// it. The declared content type of the upload is ignored.
func (s *Service) Store(ctx context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", validation.FieldError{Field: "image", Message: fmt.Sprintf("unsupported content type %s", mtype.String())}
	}

	img := Image{
		ID:          ids.New(),
		Filename:    filepath.Base(filename),
		ContentType: mtype.String(),
		Size:        len(data),
		Data:        data,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, img); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}

	s.logger.Info().Str("image_id", img.ID).Str("content_type", img.ContentType).Int("size", img.Size).Msg("image stored")
	return img.ID, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Image, error) {
	return s.repo.GetByID(ctx, id)
}

// Reader returns the image payload as a seekable reader.
func (img *Image) Reader() io.ReadSeeker {
	return bytes.NewReader(img.Data)
}
