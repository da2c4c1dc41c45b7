package pagination

import (
	"math"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Togather-Foundation/booking/internal/validation"
)

func TestParse(t *testing.T) {
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: 10}},
		{"page=2", Params{Page: 2, Limit: 10}},
		{"page=3&limit=25", Params{Page: 3, Limit: 25}},
		{"limit=1000", Params{Page: 1, Limit: MaxLimit}},
		{"page=+4&limit= 5 ", Params{Page: 4, Limit: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			got, err := Parse(values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	for _, query := range []string{
		"page=0", "page=-1", "page=abc", "limit=0", "limit=1.5",
		"page=9223372036854775807&limit=10",
		"page=" + strconv.Itoa(MaxPage+1),
		"page=99999999999999999999",
	} {
		t.Run(query, func(t *testing.T) {
			values, _ := url.ParseQuery(query)
			_, err := Parse(values)
			require.Error(t, err)
			assert.True(t, validation.Is(err))
		})
	}
}

func TestOffsetAndTotalPages(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 10, Params{Page: 2, Limit: 10}.Offset())

	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(15, 10))
	assert.Equal(t, 15, TotalPages(15, 1))
}

func TestParse_LargestPageKeepsOffsetPositive(t *testing.T) {
	values := url.Values{"page": {strconv.Itoa(MaxPage)}, "limit": {"1000"}}
	got, err := Parse(values)
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, got.Limit)
	assert.Positive(t, got.Offset())
}

func TestOffsetSaturates(t *testing.T) {
	assert.Equal(t, math.MaxInt, Params{Page: math.MaxInt, Limit: 10}.Offset())
	assert.Equal(t, 0, Params{Page: 0, Limit: 10}.Offset())
}
