package ids

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var ErrInvalidID = errors.New("invalid id")

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New returns a fresh ULID. IDs minted within the same millisecond are
// monotonically increasing.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Parse validates value as a ULID and returns its canonical upper-case form.
func Parse(value string) (string, error) {
	id, err := ulid.ParseStrict(strings.ToUpper(strings.TrimSpace(value)))
	if err != nil {
		return "", ErrInvalidID
	}
	return id.String(), nil
}

func Valid(value string) bool {
	_, err := Parse(value)
	return err == nil
}
