// Package ingest loads a latest-prices JSON dump into the price tables,
// updating both the current-price snapshot and the append-only log.
package ingest

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/millelog/new-world-profit-calculator/internal/model"
)

// PriceWriter is the store seam the importer writes through.
type PriceWriter interface {
	UpsertPrice(ctx context.Context, q model.PriceQuote) error
	AddPriceLog(ctx context.Context, q model.PriceQuote) error
}

// row mirrors one entry of the upstream dump. Price arrives as a string;
// a zero buy order or quantity means the field is absent.
type row struct {
	ItemID          string  `json:"ItemId"`
	Price           string  `json:"Price"`
	Availability    int     `json:"Availability"`
	HighestBuyOrder float64 `json:"HighestBuyOrder"`
	Qty             int     `json:"Qty"`
	LastUpdated     string  `json:"LastUpdated"`
}

const lastUpdatedLayout = "2006-01-02T15:04:05.999999999"

// Result summarizes one import pass.
type Result struct {
	Imported int
	Skipped  int
}

// Importer parses dumps and persists their rows.
type Importer struct {
	writer PriceWriter
}

func New(writer PriceWriter) *Importer {
	return &Importer{writer: writer}
}

// ImportFile imports the dump at path for one server.
func (im *Importer) ImportFile(ctx context.Context, path string, serverID int64) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return im.Import(ctx, f, serverID)
}

// Import reads a JSON array of price rows and persists each one. Rows
// that fail to parse are skipped and counted, not fatal; store errors
// abort the import.
func (im *Importer) Import(ctx context.Context, r io.Reader, serverID int64) (Result, error) {
	var rows []row
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return Result{}, eris.Wrap(err, "ingest: decode dump")
	}

	var res Result
	for _, raw := range rows {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "ingest: import")
		}

		quote, err := raw.toQuote(serverID)
		if err != nil {
			res.Skipped++
			zap.L().Warn("ingest: skipping row",
				zap.String("item_id", raw.ItemID),
				zap.Error(err),
			)
			continue
		}
		if err := im.writer.AddPriceLog(ctx, quote); err != nil {
			return res, err
		}
		if err := im.writer.UpsertPrice(ctx, quote); err != nil {
			return res, err
		}
		res.Imported++
	}
	zap.L().Info("ingest: import complete",
		zap.Int64("server_id", serverID),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

func (r row) toQuote(serverID int64) (model.PriceQuote, error) {
	if r.ItemID == "" {
		return model.PriceQuote{}, eris.New("missing item id")
	}
	price, err := strconv.ParseFloat(r.Price, 64)
	if err != nil {
		return model.PriceQuote{}, eris.Wrapf(err, "bad price %q", r.Price)
	}
	updated, err := time.Parse(lastUpdatedLayout, r.LastUpdated)
	if err != nil {
		return model.PriceQuote{}, eris.Wrapf(err, "bad timestamp %q", r.LastUpdated)
	}

	quote := model.PriceQuote{
		ItemID:       r.ItemID,
		ServerID:     serverID,
		Price:        price,
		Availability: r.Availability,
		LastUpdated:  updated,
	}
	if r.HighestBuyOrder != 0 {
		hbo := r.HighestBuyOrder
		quote.HighestBuyOrder = &hbo
	}
	if r.Qty != 0 {
		qty := r.Qty
		quote.Qty = &qty
	}
	return quote, nil
}
