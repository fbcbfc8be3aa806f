// Package pricefeed pulls per-item price history from an
// nwmarketprices-style API, with request rate limiting and a TTL cache
// so repeated evaluations within a session don't hammer the upstream.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/millelog/new-world-profit-calculator/internal/model"
)

// Options configures the feed client.
type Options struct {
	BaseURL   string
	RateLimit rate.Limit
	CacheTTL  time.Duration
	Timeout   time.Duration
}

// Client fetches price history for one item at a time.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	cache      *gocache.Cache
}

// NewClient creates a feed client. RateLimit <= 0 falls back to one
// request per second, the upstream's published courtesy limit.
func NewClient(opts Options) *Client {
	limit := opts.RateLimit
	if limit <= 0 {
		limit = 1
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    opts.BaseURL,
		limiter:    rate.NewLimiter(limit, 1),
		cache:      gocache.New(ttl, ttl/2),
	}
}

// graphPayload mirrors the upstream response body.
type graphPayload struct {
	PriceGraphData []graphPoint `json:"price_graph_data"`
}

type graphPoint struct {
	AvgAvail    float64 `json:"avg_avail"`
	AvgPrice    float64 `json:"avg_price"`
	LowestPrice float64 `json:"lowest_price"`
	DateOnly    string  `json:"date_only"`
}

// History fetches the aggregated price series for a market item. Results
// are cached per (marketID, serverID) for the configured TTL.
func (c *Client) History(ctx context.Context, marketID, serverID int64) ([]model.PriceSample, error) {
	key := fmt.Sprintf("%d/%d", serverID, marketID)
	if cached, ok := c.cache.Get(key); ok {
		return cached.([]model.PriceSample), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "pricefeed: rate limit wait")
	}

	url := fmt.Sprintf("%s/0/%d/?cn_id=%d", c.baseURL, serverID, marketID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "pricefeed: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "pricefeed: fetch market item %d", marketID)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, eris.Errorf("pricefeed: market item %d: unexpected status %d", marketID, resp.StatusCode)
	}

	var payload graphPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, eris.Wrapf(err, "pricefeed: decode market item %d", marketID)
	}

	samples := make([]model.PriceSample, 0, len(payload.PriceGraphData))
	for _, point := range payload.PriceGraphData {
		sampledAt, err := time.Parse("2006-01-02", point.DateOnly)
		if err != nil {
			zap.L().Warn("pricefeed: skipping point with bad date",
				zap.Int64("market_id", marketID),
				zap.String("date", point.DateOnly),
			)
			continue
		}
		samples = append(samples, model.PriceSample{
			AvgAvailability: point.AvgAvail,
			AvgPrice:        point.AvgPrice,
			LowestPrice:     point.LowestPrice,
			SampledAt:       sampledAt,
		})
	}

	c.cache.Set(key, samples, gocache.DefaultExpiration)
	return samples, nil
}
