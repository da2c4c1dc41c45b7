package postgres

import (
	"errors"
	"time"

	"github.com/Togather-Foundation/booking/internal/domain/bookings"
	"github.com/Togather-Foundation/booking/internal/domain/events"
	"github.com/Togather-Foundation/booking/internal/domain/images"
	"github.com/Togather-Foundation/booking/internal/domain/users"
	"github.com/Togather-Foundation/booking/internal/metrics"
)

// outcomes are domain results a query maps rows or constraints to. They are
// timed like any query but not counted as database errors.
var outcomes = []error{
	events.ErrNotFound,
	bookings.ErrNotFound,
	bookings.ErrAlreadyBooked,
	bookings.ErrEventNotFound,
	users.ErrNotFound,
	users.ErrDuplicateEmail,
	images.ErrNotFound,
}

func recordQuery(operation string, start time.Time, err error) {
	for _, outcome := range outcomes {
		if errors.Is(err, outcome) {
			err = nil
			break
		}
	}
	metrics.RecordQuery(operation, start, err)
}
