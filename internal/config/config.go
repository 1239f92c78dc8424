// Package config provides configuration loading and validation.
package config

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/mverab/flasharb/internal/apperror"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Market    MarketConfig    `mapstructure:"market"`
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// MarketConfig holds market data aggregation settings.
type MarketConfig struct {
	OracleURL       string        `mapstructure:"oracle_url"`
	OracleTimeout   time.Duration `mapstructure:"oracle_timeout"`
	OracleCacheTTL  time.Duration `mapstructure:"oracle_cache_ttl"`
	MaxQuoteAge     time.Duration `mapstructure:"max_quote_age"`
	MaxDeviationBps int64         `mapstructure:"max_deviation_bps"`
	Assets          []string      `mapstructure:"assets"`
	Venues          []string      `mapstructure:"venues"`
}

// ArbitrageConfig holds opportunity scanning settings.
type ArbitrageConfig struct {
	OpportunityTTL   time.Duration `mapstructure:"opportunity_ttl"`
	MinProfit        string        `mapstructure:"min_profit"`
	TakerFeeBps      int64         `mapstructure:"taker_fee_bps"`
	MakerFeeBps      int64         `mapstructure:"maker_fee_bps"`
	FlashLoanFeeBps  int64         `mapstructure:"flash_loan_fee_bps"`
	GasFee           string        `mapstructure:"gas_fee"`
	WithdrawalFee    string        `mapstructure:"withdrawal_fee"`
	ScanIntervalSecs int           `mapstructure:"scan_interval_secs"`
	ScansPerMinute   int           `mapstructure:"scans_per_minute"`
}

// RiskConfig holds initial risk parameters. After first startup the
// authoritative copy lives in the state store and is updated at runtime.
type RiskConfig struct {
	MaxPositionSize    string `mapstructure:"max_position_size"`
	MaxSlippageBps     int64  `mapstructure:"max_slippage_bps"`
	MinProfitThreshold string `mapstructure:"min_profit_threshold"`
	MaxGasPrice        string `mapstructure:"max_gas_price"`
}

// ExecutionConfig holds execution coordinator settings.
type ExecutionConfig struct {
	DefaultDeadline  time.Duration `mapstructure:"default_deadline"`
	CrossChainFeeBps int64         `mapstructure:"cross_chain_fee_bps"`
}

// RedisConfig holds optional redis state store settings. When disabled the
// engine runs on the in-memory store.
type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// EthereumConfig holds the RPC endpoint used by the cross-chain gas oracle.
type EthereumConfig struct {
	HTTPURL string `mapstructure:"http_url"`
	ChainID uint64 `mapstructure:"chain_id"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// MinProfitDecimal returns the scan profit floor as a decimal.
func (c *ArbitrageConfig) MinProfitDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.MinProfit)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("FLASHARB")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, apperror.New(apperror.CodeConfigurationError,
				apperror.WithContext("read config file"),
				apperror.WithCause(err))
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("unmarshal config"),
			apperror.WithCause(err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "FLASHARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "FLASHARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "FLASHARB_LOG_LEVEL", "LOG_LEVEL")

	// Market
	v.BindEnv("market.oracle_url", "FLASHARB_ORACLE_URL", "ORACLE_URL")
	v.BindEnv("market.max_deviation_bps", "FLASHARB_MAX_DEVIATION_BPS")
	v.BindEnv("market.assets", "FLASHARB_ASSETS")
	v.BindEnv("market.venues", "FLASHARB_VENUES")

	// Arbitrage
	v.BindEnv("arbitrage.min_profit", "FLASHARB_MIN_PROFIT")
	v.BindEnv("arbitrage.scan_interval_secs", "FLASHARB_SCAN_INTERVAL_SECS")

	// Risk
	v.BindEnv("risk.max_position_size", "FLASHARB_MAX_POSITION_SIZE")
	v.BindEnv("risk.max_slippage_bps", "FLASHARB_MAX_SLIPPAGE_BPS")
	v.BindEnv("risk.min_profit_threshold", "FLASHARB_MIN_PROFIT_THRESHOLD")

	// Redis
	v.BindEnv("redis.enabled", "FLASHARB_REDIS_ENABLED")
	v.BindEnv("redis.addr", "FLASHARB_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("redis.password", "FLASHARB_REDIS_PASSWORD", "REDIS_PASSWORD")

	// Ethereum
	v.BindEnv("ethereum.http_url", "FLASHARB_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.chain_id", "FLASHARB_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Telemetry
	v.BindEnv("telemetry.enabled", "FLASHARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "FLASHARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "FLASHARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "flasharb")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Market defaults
	v.SetDefault("market.oracle_timeout", "5s")
	v.SetDefault("market.oracle_cache_ttl", "10s")
	v.SetDefault("market.max_quote_age", "60s")
	v.SetDefault("market.max_deviation_bps", 500)
	v.SetDefault("market.assets", []string{"XLM", "USDC"})
	v.SetDefault("market.venues", []string{"stellar_dex", "soroswap", "aquarius"})

	// Arbitrage defaults
	v.SetDefault("arbitrage.opportunity_ttl", "30s")
	v.SetDefault("arbitrage.min_profit", "0.00001")
	v.SetDefault("arbitrage.taker_fee_bps", 10)
	v.SetDefault("arbitrage.maker_fee_bps", 5)
	v.SetDefault("arbitrage.flash_loan_fee_bps", 5)
	v.SetDefault("arbitrage.gas_fee", "0.001")
	v.SetDefault("arbitrage.withdrawal_fee", "0")
	v.SetDefault("arbitrage.scan_interval_secs", 5)
	v.SetDefault("arbitrage.scans_per_minute", 12)

	// Risk defaults
	v.SetDefault("risk.max_position_size", "100")
	v.SetDefault("risk.max_slippage_bps", 100)
	v.SetDefault("risk.min_profit_threshold", "0.00001")
	v.SetDefault("risk.max_gas_price", "0.01")

	// Execution defaults
	v.SetDefault("execution.default_deadline", "30s")
	v.SetDefault("execution.cross_chain_fee_bps", 20)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "flasharb")

	// Ethereum defaults
	v.SetDefault("ethereum.chain_id", 1)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "flasharb")
	v.SetDefault("telemetry.trace_provider", "otlp-grpc")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Market.MaxDeviationBps <= 0 {
		return apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("market.max_deviation_bps must be positive"))
	}
	if c.Market.MaxQuoteAge <= 0 {
		return apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("market.max_quote_age must be positive"))
	}
	if len(c.Market.Assets) == 0 {
		return apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("market.assets cannot be empty"))
	}
	if len(c.Market.Venues) < 2 {
		return apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("market.venues needs at least two venues"))
	}
	if c.Arbitrage.OpportunityTTL <= 0 {
		return apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("arbitrage.opportunity_ttl must be positive"))
	}
	if _, err := decimal.NewFromString(c.Risk.MaxPositionSize); err != nil {
		return apperror.New(apperror.CodeConfigurationError,
			apperror.WithContextf("invalid risk.max_position_size %q", c.Risk.MaxPositionSize),
			apperror.WithCause(err))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("redis.addr is required when redis is enabled"))
	}
	return nil
}
