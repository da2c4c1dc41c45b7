package images

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Togather-Foundation/booking/internal/validation"
)

// Smallest valid PNG: signature plus IHDR, IDAT and IEND chunks.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0a, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

type memoryRepo struct {
	mu     sync.Mutex
	images map[string]Image
}

func (m *memoryRepo) Create(_ context.Context, img Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[img.ID] = img
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &img, nil
}

func TestStoreAndGet(t *testing.T) {
	svc := NewService(&memoryRepo{images: map[string]Image{}}, 0, zerolog.Nop())
	ctx := context.Background()

	id, err := svc.Store(ctx, "../../poster.png", bytes.NewReader(pngBytes))
	require.NoError(t, err)

	img, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "poster.png", img.Filename)
	assert.Equal(t, len(pngBytes), img.Size)

	got, err := io.ReadAll(img.Reader())
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)
}

func TestStore_RejectsNonImage(t *testing.T) {
	svc := NewService(&memoryRepo{images: map[string]Image{}}, 0, zerolog.Nop())
	_, err := svc.Store(context.Background(), "notes.txt", bytes.NewReader([]byte("plain text, not a picture")))
	assert.True(t, validation.Is(err))
}

func TestStore_Limits(t *testing.T) {
	svc := NewService(&memoryRepo{images: map[string]Image{}}, 16, zerolog.Nop())

	_, err := svc.Store(context.Background(), "empty.png", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = svc.Store(context.Background(), "big.png", bytes.NewReader(pngBytes))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestGet_NotFound(t *testing.T) {
	svc := NewService(&memoryRepo{images: map[string]Image{}}, 0, zerolog.Nop())
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
