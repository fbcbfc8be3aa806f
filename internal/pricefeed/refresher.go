package pricefeed

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/millelog/new-world-profit-calculator/internal/model"
)

// HistoryStore is the persistence seam the refresher writes through.
type HistoryStore interface {
	TrackedItems(ctx context.Context) ([]model.Item, error)
	ReplacePriceHistory(ctx context.Context, itemID string, serverID int64, samples []model.PriceSample) error
}

// Feed is the upstream the refresher reads from.
type Feed interface {
	History(ctx context.Context, marketID, serverID int64) ([]model.PriceSample, error)
}

// Refresher re-downloads price history for every tracked item and
// replaces the stored series.
type Refresher struct {
	feed        Feed
	store       HistoryStore
	concurrency int
}

func NewRefresher(feed Feed, store HistoryStore, concurrency int) *Refresher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Refresher{feed: feed, store: store, concurrency: concurrency}
}

// Refresh updates history for all tracked items on a server. Items whose
// fetch fails are counted and logged; one bad item does not abort the
// rest.
func (r *Refresher) Refresh(ctx context.Context, serverID int64) (updated, failed int, err error) {
	items, err := r.store.TrackedItems(ctx)
	if err != nil {
		return 0, 0, eris.Wrap(err, "pricefeed: list tracked items")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	results := make([]error, len(items))
	for i, item := range items {
		g.Go(func() error {
			samples, err := r.feed.History(ctx, item.MarketID, serverID)
			if err != nil {
				results[i] = err
				zap.L().Warn("pricefeed: refresh failed",
					zap.String("item_id", item.ID),
					zap.Error(err),
				)
				return nil
			}
			if err := r.store.ReplacePriceHistory(ctx, item.ID, serverID, samples); err != nil {
				results[i] = err
				zap.L().Warn("pricefeed: store failed",
					zap.String("item_id", item.ID),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, eris.Wrap(err, "pricefeed: refresh")
	}

	for _, res := range results {
		if res != nil {
			failed++
		} else {
			updated++
		}
	}
	zap.L().Info("pricefeed: refresh complete",
		zap.Int64("server_id", serverID),
		zap.Int("updated", updated),
		zap.Int("failed", failed),
	)
	return updated, failed, nil
}
