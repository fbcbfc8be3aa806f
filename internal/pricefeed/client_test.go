package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millelog/new-world-profit-calculator/internal/model"
)

const sampleBody = `{
	"price_graph_data": [
		{"avg_avail": 100, "avg_price": 0.55, "lowest_price": 0.5, "date_only": "2026-08-01"},
		{"avg_avail": 120, "avg_price": 0.6, "lowest_price": 0.52, "date_only": "2026-08-02"}
	]
}`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		BaseURL:   srv.URL,
		RateLimit: 1000, // don't slow the tests down
		CacheTTL:  time.Hour,
	})
}

func TestClient_History(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(sampleBody)) //nolint:errcheck
	}))

	samples, err := c.History(context.Background(), 1234, 7)
	require.NoError(t, err)
	assert.Equal(t, "/0/7/", gotPath)
	assert.Equal(t, "cn_id=1234", gotQuery)

	require.Len(t, samples, 2)
	assert.Equal(t, 100.0, samples[0].AvgAvailability)
	assert.Equal(t, 0.5, samples[0].LowestPrice)
	assert.Equal(t, time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC), samples[1].SampledAt)
}

func TestClient_History_Cached(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(sampleBody)) //nolint:errcheck
	}))

	_, err := c.History(context.Background(), 1234, 7)
	require.NoError(t, err)
	_, err = c.History(context.Background(), 1234, 7)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	// different item is a different cache key
	_, err = c.History(context.Background(), 5678, 7)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_History_BadDateSkipped(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price_graph_data": [
			{"avg_avail": 1, "avg_price": 1, "lowest_price": 1, "date_only": "not-a-date"},
			{"avg_avail": 2, "avg_price": 2, "lowest_price": 2, "date_only": "2026-08-01"}
		]}`)) //nolint:errcheck
	}))

	samples, err := c.History(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 2.0, samples[0].AvgAvailability)
}

func TestClient_History_UpstreamError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))

	_, err := c.History(context.Background(), 1, 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

type fakeFeed struct {
	samples map[int64][]model.PriceSample
	errs    map[int64]error
}

func (f *fakeFeed) History(_ context.Context, marketID, _ int64) ([]model.PriceSample, error) {
	if err := f.errs[marketID]; err != nil {
		return nil, err
	}
	return f.samples[marketID], nil
}

type fakeHistoryStore struct {
	mu    sync.Mutex
	items []model.Item
	saved map[string][]model.PriceSample
}

func (f *fakeHistoryStore) TrackedItems(context.Context) ([]model.Item, error) {
	return f.items, nil
}

func (f *fakeHistoryStore) ReplacePriceHistory(_ context.Context, itemID string, _ int64, samples []model.PriceSample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[itemID] = samples
	return nil
}

func TestRefresher_Refresh(t *testing.T) {
	feed := &fakeFeed{
		samples: map[int64][]model.PriceSample{
			1: {{AvgAvailability: 100}},
			2: {{AvgAvailability: 200}},
		},
		errs: map[int64]error{3: assert.AnError},
	}
	store := &fakeHistoryStore{
		items: []model.Item{
			{ID: "a", MarketID: 1},
			{ID: "b", MarketID: 2},
			{ID: "c", MarketID: 3},
		},
		saved: map[string][]model.PriceSample{},
	}

	updated, failed, err := NewRefresher(feed, store, 2).Refresh(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	assert.Equal(t, 1, failed)
	assert.Len(t, store.saved, 2)
	assert.Equal(t, 100.0, store.saved["a"][0].AvgAvailability)
}
