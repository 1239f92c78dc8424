// Package store implements the MarketSource and MarketSink ports over the
// shared state store. An off-process collector writes venue quotes and book
// snapshots through the sink side; the scanner reads them through the
// source side.
package store

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/mverab/flasharb/business/market/domain"
	"github.com/mverab/flasharb/internal/apperror"
	"github.com/mverab/flasharb/internal/fixedpoint"
	"github.com/mverab/flasharb/internal/statestore"
)

func quoteKey(venue domain.Venue, asset domain.Asset) string {
	return fmt.Sprintf("market:quote:%s:%s", venue, asset)
}

func bookKey(venue domain.Venue, asset domain.Asset) string {
	return fmt.Sprintf("market:book:%s:%s", venue, asset)
}

// Wire records. Raw values are decimal strings of the fixed-point raw units
// so precision survives JSON.
type quoteRecord struct {
	Asset      string `json:"asset"`
	Venue      string `json:"venue"`
	PriceRaw   string `json:"price_raw"`
	Timestamp  int64  `json:"timestamp"`
	Confidence int64  `json:"confidence"`
}

type levelRecord struct {
	PriceRaw  string `json:"price_raw"`
	AmountRaw string `json:"amount_raw"`
}

type bookRecord struct {
	Asset     string        `json:"asset"`
	Venue     string        `json:"venue"`
	Bids      []levelRecord `json:"bids"`
	Asks      []levelRecord `json:"asks"`
	Timestamp int64         `json:"timestamp"`
}

func rawToValue(s string) (fixedpoint.Value, error) {
	raw, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fixedpoint.Value{}, apperror.New(apperror.CodeStateStoreError,
			apperror.WithContextf("malformed raw value %q", s))
	}
	return fixedpoint.FromRaw(raw), nil
}

// Source reads and writes market data records in the state store.
type Source struct {
	store statestore.Store
}

// New creates a store-backed market data source.
func New(s statestore.Store) *Source {
	return &Source{store: s}
}

// Quote implements app.MarketSource.
func (s *Source) Quote(ctx context.Context, venue domain.Venue, asset domain.Asset) (domain.PriceQuote, error) {
	var rec quoteRecord
	ok, err := statestore.GetJSON(ctx, s.store, quoteKey(venue, asset), &rec)
	if err != nil {
		return domain.PriceQuote{}, err
	}
	if !ok {
		return domain.PriceQuote{}, apperror.New(apperror.CodeMarketDataError,
			apperror.WithContextf("no quote for %s on %s", asset, venue))
	}

	price, err := rawToValue(rec.PriceRaw)
	if err != nil {
		return domain.PriceQuote{}, err
	}

	return domain.PriceQuote{
		Asset:      asset,
		Venue:      venue,
		Price:      price,
		Timestamp:  time.Unix(rec.Timestamp, 0),
		Confidence: rec.Confidence,
	}, nil
}

// OrderBook implements app.MarketSource. A missing record yields an empty
// snapshot.
func (s *Source) OrderBook(ctx context.Context, venue domain.Venue, asset domain.Asset) (domain.OrderBookSnapshot, error) {
	var rec bookRecord
	ok, err := statestore.GetJSON(ctx, s.store, bookKey(venue, asset), &rec)
	if err != nil {
		return domain.OrderBookSnapshot{}, err
	}
	if !ok {
		return domain.OrderBookSnapshot{Venue: venue, Asset: asset}, nil
	}

	book := domain.OrderBookSnapshot{
		Venue:     venue,
		Asset:     asset,
		Timestamp: time.Unix(rec.Timestamp, 0),
	}

	for _, lr := range rec.Bids {
		lvl, err := levelFromRecord(lr)
		if err != nil {
			return domain.OrderBookSnapshot{}, err
		}
		book.Bids = append(book.Bids, lvl)
	}
	for _, lr := range rec.Asks {
		lvl, err := levelFromRecord(lr)
		if err != nil {
			return domain.OrderBookSnapshot{}, err
		}
		book.Asks = append(book.Asks, lvl)
	}

	return book, nil
}

func levelFromRecord(lr levelRecord) (domain.Level, error) {
	price, err := rawToValue(lr.PriceRaw)
	if err != nil {
		return domain.Level{}, err
	}
	amount, err := rawToValue(lr.AmountRaw)
	if err != nil {
		return domain.Level{}, err
	}
	return domain.Level{Price: price, Amount: amount}, nil
}

// SubmitQuote implements app.MarketSink.
func (s *Source) SubmitQuote(ctx context.Context, quote domain.PriceQuote) error {
	if !quote.Asset.Valid() || !quote.Venue.Valid() {
		return apperror.Validation("quote needs a valid asset and venue")
	}
	if quote.Price.Sign() <= 0 {
		return apperror.Validation("quote price must be positive")
	}

	rec := quoteRecord{
		Asset:      quote.Asset.String(),
		Venue:      quote.Venue.String(),
		PriceRaw:   quote.Price.Raw().String(),
		Timestamp:  quote.Timestamp.Unix(),
		Confidence: quote.Confidence,
	}
	return statestore.SetJSON(ctx, s.store, quoteKey(quote.Venue, quote.Asset), rec)
}

// SubmitOrderBook implements app.MarketSink.
func (s *Source) SubmitOrderBook(ctx context.Context, book domain.OrderBookSnapshot) error {
	if !book.Asset.Valid() || !book.Venue.Valid() {
		return apperror.Validation("book needs a valid asset and venue")
	}
	if err := book.Validate(); err != nil {
		return err
	}

	rec := bookRecord{
		Asset:     book.Asset.String(),
		Venue:     book.Venue.String(),
		Timestamp: book.Timestamp.Unix(),
	}
	for _, lvl := range book.Bids {
		rec.Bids = append(rec.Bids, levelRecord{
			PriceRaw:  lvl.Price.Raw().String(),
			AmountRaw: lvl.Amount.Raw().String(),
		})
	}
	for _, lvl := range book.Asks {
		rec.Asks = append(rec.Asks, levelRecord{
			PriceRaw:  lvl.Price.Raw().String(),
			AmountRaw: lvl.Amount.Raw().String(),
		})
	}

	return statestore.SetJSON(ctx, s.store, bookKey(book.Venue, book.Asset), rec)
}
