// Package main is the entry point for the flash-loan arbitrage engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mverab/flasharb/business/arbitrage"
	arbitrageDI "github.com/mverab/flasharb/business/arbitrage/di"
	"github.com/mverab/flasharb/business/execution"
	executionDI "github.com/mverab/flasharb/business/execution/di"
	executionDomain "github.com/mverab/flasharb/business/execution/domain"
	"github.com/mverab/flasharb/business/market"
	"github.com/mverab/flasharb/business/risk"
	"github.com/mverab/flasharb/internal/apm"
	"github.com/mverab/flasharb/internal/config"
	"github.com/mverab/flasharb/internal/fixedpoint"
	"github.com/mverab/flasharb/internal/health"
	"github.com/mverab/flasharb/internal/logger"
	"github.com/mverab/flasharb/internal/metrics"
	"github.com/mverab/flasharb/internal/monolith"
	"github.com/mverab/flasharb/internal/ratelimit"
	"github.com/mverab/flasharb/internal/statestore"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	scanInterval := flag.Int("scan-interval", 0, "Override scan interval in seconds")
	dryRun := flag.Bool("dry-run", false, "Execute the best opportunity per scan against the simulated venues")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("flasharb %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, *configPath, *scanInterval, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, scanInterval int, dryRun bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if scanInterval > 0 {
		cfg.Arbitrage.ScanIntervalSecs = scanInterval
	}

	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}
	log := logger.New(os.Stderr, logLevel, cfg.App.Name, nil)

	log.Info(ctx, "starting flash-loan arbitrage engine",
		"version", version,
		"environment", cfg.App.Environment,
		"dry_run", dryRun,
	)

	// Observability bootstrap. The engine runs fine with it disabled; all
	// instruments fall back to otel no-ops.
	if cfg.Telemetry.Enabled {
		traceProvider, err := apm.NewTraceProvider(ctx, apm.Config{
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
			Provider:    apm.Provider(cfg.Telemetry.TraceProvider),
		})
		if err != nil {
			return err
		}
		defer traceProvider.Stop()

		metricProvider, err := metrics.NewMetricProvider(ctx,
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)
		if err != nil {
			return err
		}
		defer metricProvider.Shutdown(context.Background())

		go func() {
			if err := metrics.ServePrometheusMetrics(cfg.Telemetry.PrometheusPort); err != nil {
				log.Warn(ctx, "prometheus endpoint stopped", "error", err.Error())
			}
		}()
		log.Info(ctx, "telemetry initialized",
			"trace_provider", cfg.Telemetry.TraceProvider,
			"prometheus_port", cfg.Telemetry.PrometheusPort,
		)
	}

	// State store: redis when shared state across processes is needed,
	// in-memory otherwise.
	var store statestore.Store
	if cfg.Redis.Enabled {
		store, err = statestore.NewRedis(ctx, statestore.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return err
		}
		log.Info(ctx, "redis state store connected", "addr", cfg.Redis.Addr)
	} else {
		store = statestore.NewMemory()
	}

	mono, err := monolith.New(cfg, log, store)
	if err != nil {
		return err
	}
	defer mono.Close()

	modules := []monolith.Module{
		&market.Module{},    // price aggregation, must come first
		&arbitrage.Module{}, // scanning, depends on market
		&risk.Module{},      // limits, depends only on the store
		&execution.Module{}, // coordinator, depends on all of the above
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	healthServer := health.NewServer(8081, version, log)
	healthServer.RegisterCheck("state_store", func(ctx context.Context) (bool, string) {
		if err := store.Ping(ctx); err != nil {
			return false, err.Error()
		}
		return true, ""
	})
	healthServer.Start()
	defer healthServer.Stop(context.Background())
	log.Info(ctx, "health server started", "port", 8081)

	return scanLoop(ctx, mono, cfg, dryRun, log)
}

// scanLoop drives detection: one scan per tick, paced by the rate limiter,
// results reported and optionally executed against the simulated venues.
func scanLoop(ctx context.Context, mono monolith.Monolith, cfg *config.Config, dryRun bool, log logger.LoggerInterface) error {
	scanner := arbitrageDI.GetScanner(mono.Services())
	reporter := arbitrageDI.GetReporter(mono.Services())
	coordinator := executionDI.GetCoordinator(mono.Services())
	limiter := ratelimit.New(cfg.Arbitrage.ScansPerMinute)

	interval := time.Duration(cfg.Arbitrage.ScanIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info(ctx, "scan loop started",
		"interval", interval.String(),
		"scans_per_minute", cfg.Arbitrage.ScansPerMinute,
	)

	for {
		select {
		case <-ctx.Done():
			stats := coordinator.MetricsSnapshot()
			log.Info(ctx, "shutting down",
				"executions", stats.TotalExecutions,
				"success_rate", fmt.Sprintf("%.1f%%", stats.SuccessRate()),
				"total_profit", stats.TotalProfit.String(),
			)
			return nil
		case <-ticker.C:
		}

		if err := limiter.Wait(ctx); err != nil {
			continue
		}

		opportunities, err := scanner.Scan(ctx, nil, fixedpoint.Zero())
		if err != nil {
			log.Error(ctx, "scan failed", "error", err.Error())
			continue
		}

		reporter.Report(opportunities)

		if !dryRun || len(opportunities) == 0 {
			continue
		}

		// Dry run executes the best opportunity through the full state
		// machine against the paper venues.
		best := opportunities[0]
		result, err := coordinator.Execute(ctx, executionDomain.Params{
			Opportunity: best,
			Amount:      best.AvailableAmount,
		})
		if err != nil {
			log.Warn(ctx, "dry-run execution failed",
				"asset", best.Asset.String(),
				"error", err.Error(),
			)
			continue
		}
		log.Info(ctx, "dry-run execution settled",
			"id", result.ID,
			"realized_profit", result.RealizedProfit.String(),
			"duration", result.Duration.String(),
		)
	}
}
