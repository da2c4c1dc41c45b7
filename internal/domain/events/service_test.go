package events

import (
	"context"
	"encoding/json"
	"math"
	"net/url"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Togather-Foundation/booking/internal/audit"
	"github.com/Togather-Foundation/booking/internal/validation"
)

type memoryRepo struct {
	mu     sync.Mutex
	events map[string]Event
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{events: map[string]Event{}}
}

func (m *memoryRepo) List(_ context.Context, filters Filters, page Pagination) (ListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []Event
	for _, e := range m.events {
		if filters.Category != "" && e.Category != filters.Category {
			continue
		}
		if len(filters.Tags) > 0 && !overlaps(e.Tags, filters.Tags) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := len(matched)
	start := min(page.Offset(), total)
	end := min(start+page.Limit, total)
	return ListResult{Events: matched[start:end], Total: total}, nil
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *memoryRepo) Create(_ context.Context, e Event) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = e
	return &e, nil
}

func (m *memoryRepo) Update(_ context.Context, e Event) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[e.ID]; !ok {
		return nil, ErrNotFound
	}
	m.events[e.ID] = e
	return &e, nil
}

func (m *memoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(repo, audit.Nop(), zerolog.Nop()), repo
}

func decodeInput(t *testing.T, body string) Input {
	t.Helper()
	var in Input
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return in
}

func TestCreate_NormalizesTagsFromString(t *testing.T) {
	svc, _ := newTestService()
	in := decodeInput(t, `{"name":" Conf ","date":"2025-06-01","price":10,"tags":" a, ,b "}`)

	event, err := svc.Create(context.Background(), "admin", in)
	require.NoError(t, err)
	assert.Equal(t, "Conf", event.Name)
	assert.Equal(t, []string{"a", "b"}, event.Tags)
	assert.True(t, decimal.NewFromInt(10).Equal(event.Price))
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), event.Date)
	assert.NotEmpty(t, event.ID)
}

func TestCreate_TagsFromArray(t *testing.T) {
	svc, _ := newTestService()
	in := decodeInput(t, `{"name":"Conf","date":"2025-06-01T18:00:00Z","price":"12.50","tags":["music"," jazz ",""]}`)

	event, err := svc.Create(context.Background(), "admin", in)
	require.NoError(t, err)
	assert.Equal(t, []string{"music", "jazz"}, event.Tags)
	assert.Equal(t, "12.5", event.Price.String())
}

func TestCreate_MissingTagsIsEmptyList(t *testing.T) {
	svc, _ := newTestService()
	event, err := svc.Create(context.Background(), "admin", decodeInput(t, `{"name":"Conf","date":"2025-06-01","price":0}`))
	require.NoError(t, err)
	assert.NotNil(t, event.Tags)
	assert.Empty(t, event.Tags)
}

func TestCreate_ValidationErrors(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Create(context.Background(), "admin", decodeInput(t, `{"description":"x"}`))
	require.Error(t, err)
	fields := validation.Fields(err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "date")
	assert.Contains(t, fields, "price")

	_, err = svc.Create(context.Background(), "admin", decodeInput(t, `{"name":"Conf","date":"2025-06-01","price":-1}`))
	assert.Equal(t, "must not be negative", validation.Fields(err)["price"])

	_, err = svc.Create(context.Background(), "admin", decodeInput(t, `{"name":"<b></b>","date":"2025-06-01","price":1}`))
	assert.Equal(t, "cannot be empty", validation.Fields(err)["name"])

	_, err = svc.Create(context.Background(), "admin", decodeInput(t, `{"name":"Conf","date":"2025-06-01","price":1,"image":"not a url"}`))
	assert.Contains(t, validation.Fields(err), "image")

	assert.Empty(t, repo.events)
}

func TestCreate_PriceFitsColumn(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	tests := []struct {
		price string
		want  string
	}{
		{"0.005", "must have at most 2 decimal places"},
		{"12.345", "must have at most 2 decimal places"},
		{"10000000000", "must be less than 10000000000"},
		{"1e12", "must be less than 10000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			_, err := svc.Create(ctx, "admin", decodeInput(t, `{"name":"Conf","date":"2025-06-01","price":`+tt.price+`}`))
			assert.Equal(t, tt.want, validation.Fields(err)["price"])
		})
	}
	assert.Empty(t, repo.events)

	for _, ok := range []string{"9999999999.99", "12.50", "1.000", "0"} {
		_, err := svc.Create(ctx, "admin", decodeInput(t, `{"name":"Conf","date":"2025-06-01","price":`+ok+`}`))
		assert.NoError(t, err, ok)
	}
}

func TestPaginationOffsetSaturates(t *testing.T) {
	assert.Equal(t, 0, Pagination{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, Pagination{Page: 3, Limit: 10}.Offset())
	assert.Equal(t, math.MaxInt, Pagination{Page: math.MaxInt, Limit: 10}.Offset())
}

func TestInput_RejectsBadShapes(t *testing.T) {
	var in Input
	err := json.Unmarshal([]byte(`{"tags":42}`), &in)
	require.Error(t, err)
	assert.True(t, validation.Is(err))

	err = json.Unmarshal([]byte(`{"date":"June first"}`), &in)
	require.Error(t, err)
	assert.True(t, validation.Is(err))
}

func TestUpdate_PartialKeepsAbsentFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, "admin", decodeInput(t, `{"name":"Conf","date":"2025-06-01","price":10,"tags":"a,b","category":"tech"}`))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "admin", created.ID, decodeInput(t, `{"price":15}`))
	require.NoError(t, err)
	assert.Equal(t, "Conf", updated.Name)
	assert.Equal(t, "tech", updated.Category)
	assert.Equal(t, []string{"a", "b"}, updated.Tags)
	assert.Equal(t, "15", updated.Price.String())

	updated, err = svc.Update(ctx, "admin", created.ID, decodeInput(t, `{"tags":"c"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, updated.Tags)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Update(context.Background(), "admin", "01HX0000000000000000000000", decodeInput(t, `{"price":1}`))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_RejectsNegativePrice(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, "admin", decodeInput(t, `{"name":"Conf","date":"2025-06-01","price":10}`))
	require.NoError(t, err)

	_, err = svc.Update(ctx, "admin", created.ID, decodeInput(t, `{"price":-5}`))
	assert.True(t, validation.Is(err))

	stored, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "10", stored.Price.String())
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, "admin", decodeInput(t, `{"name":"Conf","date":"2025-06-01","price":10}`))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "admin", created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "admin", created.ID), ErrNotFound)
}

func TestList_Pagination(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for i := 0; i < 15; i++ {
		_, err := svc.Create(ctx, "admin", decodeInput(t, `{"name":"Conf","date":"2025-06-01","price":1}`))
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, Filters{}, Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, first.Events, 10)
	assert.Equal(t, 15, first.Total)

	second, err := svc.List(ctx, Filters{}, Pagination{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, second.Events, 5)
}

func TestParseFilters(t *testing.T) {
	filters := ParseFilters(url.Values{"category": {" music "}, "tags": {"jazz, ,blues"}})
	assert.Equal(t, "music", filters.Category)
	assert.Equal(t, []string{"jazz", "blues"}, filters.Tags)

	empty := ParseFilters(url.Values{"tags": {" , "}})
	assert.Nil(t, empty.Tags)
}

func TestEvent_PriceMarshalsAsNumber(t *testing.T) {
	data, err := json.Marshal(Event{Price: decimal.RequireFromString("12.50"), Tags: []string{}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":12.5`)
}
