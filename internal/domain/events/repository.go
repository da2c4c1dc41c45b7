package events

import (
	"context"
	"errors"
	"math"
)

var ErrNotFound = errors.New("event not found")

type Filters struct {
	Category string
	Tags     []string
}

type Pagination struct {
	Page  int
	Limit int
}

// Offset saturates at math.MaxInt so an oversized page reads as past the end.
func (p Pagination) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

type ListResult struct {
	Events []Event
	Total  int
}

type Repository interface {
	List(ctx context.Context, filters Filters, page Pagination) (ListResult, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	Create(ctx context.Context, event Event) (*Event, error)
	Update(ctx context.Context, event Event) (*Event, error)
	Delete(ctx context.Context, id string) error
}
