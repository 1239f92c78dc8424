package app

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mverab/flasharb/business/arbitrage/domain"
	marketDomain "github.com/mverab/flasharb/business/market/domain"
	"github.com/mverab/flasharb/internal/fixedpoint"
	"github.com/mverab/flasharb/internal/logger"
)

const (
	tracerName = "arbitrage.scanner"
	meterName  = "arbitrage.scanner"
)

// ScannerConfig holds scan settings.
type ScannerConfig struct {
	TradeSize      fixedpoint.Value // default size when no depth is known
	MinProfit      fixedpoint.Value // unfloored net profit floor
	OpportunityTTL time.Duration
	Fees           domain.FeeModel
}

type scannerMetrics struct {
	scans         metric.Int64Counter
	opportunities metric.Int64Counter
}

// Scanner walks every registered venue pair per asset and emits ranked,
// fee- and slippage-adjusted opportunities. Failures on one asset or venue
// skip that entry; the scan continues with the rest.
type Scanner struct {
	market     MarketData
	calculator *ProfitCalculator
	estimator  *SlippageEstimator
	registry   *marketDomain.Registry
	config     ScannerConfig
	logger     logger.LoggerInterface
	tracer     trace.Tracer
	metrics    *scannerMetrics
	now        func() time.Time
}

// NewScanner creates a Scanner.
func NewScanner(
	market MarketData,
	calculator *ProfitCalculator,
	estimator *SlippageEstimator,
	registry *marketDomain.Registry,
	cfg ScannerConfig,
	log logger.LoggerInterface,
) (*Scanner, error) {
	if err := cfg.Fees.Validate(); err != nil {
		return nil, err
	}
	if cfg.OpportunityTTL <= 0 {
		cfg.OpportunityTTL = domain.DefaultOpportunityTTL
	}
	if cfg.TradeSize.Sign() <= 0 {
		cfg.TradeSize = fixedpoint.FromUnits(10)
	}

	s := &Scanner{
		market:     market,
		calculator: calculator,
		estimator:  estimator,
		registry:   registry,
		config:     cfg,
		logger:     log,
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}

	if err := s.initMetrics(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scanner) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &scannerMetrics{}

	s.metrics.scans, err = meter.Int64Counter(
		"arbitrage_scans_total",
		metric.WithDescription("Total scan passes"),
		metric.WithUnit("{scan}"),
	)
	if err != nil {
		return err
	}

	s.metrics.opportunities, err = meter.Int64Counter(
		"arbitrage_opportunities_total",
		metric.WithDescription("Opportunities found"),
		metric.WithUnit("{opportunity}"),
	)
	return err
}

// Scan evaluates assets across all venue pairs and returns opportunities
// sorted by estimated profit, best first. An empty asset list scans every
// registered asset; unregistered assets in a caller-supplied list are
// skipped. A non-positive minProfit falls back to the configured floor.
func (s *Scanner) Scan(ctx context.Context, assets []marketDomain.Asset, minProfit fixedpoint.Value) ([]domain.Opportunity, error) {
	ctx, span := s.tracer.Start(ctx, "arbitrage.scan")
	defer span.End()

	s.metrics.scans.Add(ctx, 1)

	if len(assets) == 0 {
		assets = s.registry.Assets()
	}
	if minProfit.Sign() <= 0 {
		minProfit = s.config.MinProfit
	}

	var found []domain.Opportunity
	for _, asset := range assets {
		if !s.registry.SupportsAsset(asset) {
			s.logger.Debug(ctx, "asset skipped",
				"asset", asset.String(),
				"reason", "not registered",
			)
			continue
		}
		opps := s.scanAsset(ctx, asset, minProfit)
		found = append(found, opps...)
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].EstimatedProfit.Cmp(found[j].EstimatedProfit) > 0
	})

	s.metrics.opportunities.Add(ctx, int64(len(found)))
	span.SetAttributes(attribute.Int("opportunities", len(found)))

	return found, nil
}

func (s *Scanner) scanAsset(ctx context.Context, asset marketDomain.Asset, minProfit fixedpoint.Value) []domain.Opportunity {
	ctx, span := s.tracer.Start(ctx, "arbitrage.scan_asset",
		trace.WithAttributes(attribute.String("asset", asset.String())),
	)
	defer span.End()

	venues := s.registry.Venues()

	// Collect validated prices per venue; venues that fail validation are
	// simply absent from this pass.
	quotes := make(map[marketDomain.Venue]marketDomain.PriceQuote, len(venues))
	for _, venue := range venues {
		quote, err := s.market.ValidatedPrice(ctx, venue, asset)
		if err != nil {
			s.logger.Debug(ctx, "venue skipped",
				"asset", asset.String(),
				"venue", venue.String(),
				"reason", err.Error(),
			)
			continue
		}
		quotes[venue] = quote
	}

	if len(quotes) < 2 {
		return nil
	}

	now := s.now()
	var found []domain.Opportunity

	for _, buyVenue := range venues {
		buy, ok := quotes[buyVenue]
		if !ok {
			continue
		}
		for _, sellVenue := range venues {
			if sellVenue == buyVenue {
				continue
			}
			sell, ok := quotes[sellVenue]
			if !ok {
				continue
			}
			if sell.Price.Cmp(buy.Price) <= 0 {
				continue
			}

			opp, ok := s.evaluatePair(ctx, asset, buy, sell, minProfit, now)
			if ok {
				found = append(found, opp)
			}
		}
	}

	return found
}

// evaluatePair prices one buy/sell venue combination. The sell price is
// discounted by estimated slippage before the profit check; the buy leg is
// assumed to fill at quote since the loan sizes the trade to available depth.
func (s *Scanner) evaluatePair(
	ctx context.Context,
	asset marketDomain.Asset,
	buy, sell marketDomain.PriceQuote,
	minProfit fixedpoint.Value,
	now time.Time,
) (domain.Opportunity, bool) {
	book, err := s.market.OrderBook(ctx, sell.Venue, asset)
	if err != nil {
		s.logger.Debug(ctx, "book unavailable",
			"venue", sell.Venue.String(), "reason", err.Error())
		return domain.Opportunity{}, false
	}

	amount := s.config.TradeSize
	if depth := book.BidDepth(); depth.Sign() > 0 {
		amount = amount.Min(depth)
	}

	slip, err := s.estimator.Estimate(book, SideSell, amount)
	if err != nil {
		return domain.Opportunity{}, false
	}

	adjustedSell := sell.Price.Sub(sell.Price.MulBps(slip.Bps))

	// Heavy slippage can invert a quoted spread. An opportunity must still
	// sell above the buy after the discount, whatever the profit floor.
	if adjustedSell.Cmp(buy.Price) <= 0 {
		return domain.Opportunity{}, false
	}

	net := s.calculator.NetProfit(buy.Price, adjustedSell, amount, s.config.Fees)
	if net.Cmp(minProfit) < 0 {
		return domain.Opportunity{}, false
	}

	confidence := (buy.Confidence + sell.Confidence) / 2

	return domain.Opportunity{
		Asset:           asset,
		BuyVenue:        buy.Venue,
		SellVenue:       sell.Venue,
		BuyPrice:        buy.Price,
		SellPrice:       adjustedSell,
		AvailableAmount: amount,
		EstimatedProfit: net,
		ConfidenceScore: confidence,
		DetectedAt:      now,
		ExpiryTime:      now.Add(s.config.OpportunityTTL),
	}, true
}
