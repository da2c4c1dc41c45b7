package events

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Togather-Foundation/booking/internal/sanitize"
	"github.com/Togather-Foundation/booking/internal/validation"
)

func init() {
	// Prices go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type Event struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Venue       string          `json:"venue"`
	Date        time.Time       `json:"date"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Tags        []string        `json:"tags"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Tags accepts either a JSON array of strings or a single comma-separated
// string. Entries are trimmed and empty ones dropped.
type Tags []string

func (t *Tags) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = sanitize.Terms(list)
		return nil
	}
	var csv string
	if err := json.Unmarshal(data, &csv); err == nil {
		*t = SplitTags(csv)
		return nil
	}
	return validation.FieldError{Field: "tags", Message: "must be an array of strings or a comma-separated string"}
}

// SplitTags turns "a, b,,c" into [a b c].
func SplitTags(value string) []string {
	if strings.TrimSpace(value) == "" {
		return []string{}
	}
	return sanitize.Terms(strings.Split(value, ","))
}

const dateOnly = "2006-01-02"

// Date is an event date given as an RFC 3339 timestamp or a bare YYYY-MM-DD.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return validation.FieldError{Field: "date", Message: "must be a date string"}
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, dateOnly} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			d.Time = parsed.UTC()
			return nil
		}
	}
	return validation.FieldError{Field: "date", Message: "must be RFC 3339 or YYYY-MM-DD"}
}

// Input carries fields for create and partial update. A nil field was not
// present in the request.
type Input struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Venue       *string          `json:"venue"`
	Date        *Date            `json:"date"`
	Price       *decimal.Decimal `json:"price"`
	Image       *string          `json:"image"`
	Tags        *Tags            `json:"tags"`
}

// apply copies the present fields of in onto e, cleaning text on the way.
func (in Input) apply(e *Event) {
	if in.Name != nil {
		e.Name = sanitize.Text(*in.Name)
	}
	if in.Description != nil {
		e.Description = sanitize.HTML(*in.Description)
	}
	if in.Category != nil {
		e.Category = sanitize.Text(*in.Category)
	}
	if in.Venue != nil {
		e.Venue = sanitize.Text(*in.Venue)
	}
	if in.Date != nil {
		e.Date = in.Date.Time
	}
	if in.Price != nil {
		e.Price = *in.Price
	}
	if in.Image != nil {
		e.Image = strings.TrimSpace(*in.Image)
	}
	if in.Tags != nil {
		e.Tags = []string(*in.Tags)
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
}
