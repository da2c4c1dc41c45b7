package pagination

import (
	"math"
	"strconv"
	"strings"

	"github.com/Togather-Foundation/booking/internal/validation"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit inside int for any limit up to MaxLimit.
	MaxPage = math.MaxInt / MaxLimit
)

// Params is a parsed page/limit pair. Both are always >= 1.
type Params struct {
	Page  int
	Limit int
}

// Offset is the number of rows to skip for this page. It saturates at
// math.MaxInt instead of wrapping.
func (p Params) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

type Getter interface {
	Get(key string) string
}

// Parse reads page and limit from query values. Missing values take the
// defaults; anything non-numeric or below 1 is a validation error, and
// limit is clamped to MaxLimit.
func Parse(values Getter) (Params, error) {
	page, err := parsePositive(values.Get("page"), "page", DefaultPage)
	if err != nil {
		return Params{}, err
	}
	if page > MaxPage {
		return Params{}, validation.FieldError{Field: "page", Message: "must be at most " + strconv.Itoa(MaxPage)}
	}
	limit, err := parsePositive(values.Get("limit"), "limit", DefaultLimit)
	if err != nil {
		return Params{}, err
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}, nil
}

func parsePositive(raw, field string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, validation.FieldError{Field: field, Message: "must be a positive integer"}
	}
	return n, nil
}

// TotalPages is ceil(total/limit); zero results means zero pages.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
