package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/millelog/new-world-profit-calculator/internal/db"
	"github.com/millelog/new-world-profit-calculator/internal/pricefeed"
	"github.com/millelog/new-world-profit-calculator/internal/profit"
	"github.com/millelog/new-world-profit-calculator/internal/resolver"
	"github.com/millelog/new-world-profit-calculator/internal/store"
)

// openStore builds the configured store backend. Callers own Close.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		s, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store.NewPostgres(pool), nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// newResolver wires a cost resolver over the store with the configured
// depth limit.
func newResolver(s store.Store) *resolver.Resolver {
	return resolver.New(s, s, s, s, resolver.WithMaxDepth(cfg.Evaluate.MaxDepth))
}

// newAnalyzer wires a profitability analyzer over the store.
func newAnalyzer(s store.Store, strategyName string, topN int) (*profit.Analyzer, error) {
	strategy, err := profit.NewStrategy(strategyName)
	if err != nil {
		return nil, err
	}
	return profit.NewAnalyzer(newResolver(s), s, s, s, strategy, topN), nil
}

// newFeedClient builds the upstream price-history client.
func newFeedClient() *pricefeed.Client {
	return pricefeed.NewClient(pricefeed.Options{
		BaseURL:   cfg.Market.BaseURL,
		RateLimit: rate.Limit(cfg.Market.RateLimit),
		CacheTTL:  time.Duration(cfg.Market.CacheTTLHours) * time.Hour,
		Timeout:   time.Duration(cfg.Market.TimeoutSecs) * time.Second,
	})
}
