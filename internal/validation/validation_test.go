package validation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name     string `json:"name" validate:"required,max=10"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func TestStruct_CollectsFieldErrors(t *testing.T) {
	err := Struct(signup{Name: "much too long name", Email: "nope"})
	require.Error(t, err)
	assert.True(t, Is(err))

	fields := Fields(err)
	assert.Equal(t, "must be at most 10 characters", fields["name"])
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "is required", fields["password"])
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(signup{Name: "Ada", Email: "ada@example.com", Password: "pw"}))
}

func TestFields_SingleAndWrapped(t *testing.T) {
	err := fmt.Errorf("create: %w", FieldError{Field: "price", Message: "must not be negative"})
	assert.True(t, Is(err))
	assert.Equal(t, map[string]string{"price": "must not be negative"}, Fields(err))

	assert.False(t, Is(errors.New("boom")))
	assert.Nil(t, Fields(errors.New("boom")))
}

func TestURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"empty", "", false},
		{"https", "https://cdn.example.com/a.png", false},
		{"http", "http://example.com", false},
		{"no scheme", "example.com/a.png", true},
		{"ftp", "ftp://example.com", true},
		{"no host", "https://", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := URL(tt.raw, "image")
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, Is(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
