package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Symbol           string
	ShortWindow      int
	LongWindow       int
	TradeQty         int
	MaxRetries       int
	MarketClosedWait time.Duration
	IterationWait    time.Duration
	RetryWait        time.Duration
	OrderType        string
	TimeInForce      string
	DecisionsPath    string
	MonitorAddr      string
	LogLevel         string
	BaseURL          string
	APIKey           string
	APISecret        string
}

func Load() (Config, error) {
	var cfg Config

	// A missing .env is fine; the environment may already carry the keys.
	_ = godotenv.Load()

	flag.StringVar(&cfg.Symbol, "symbol", "AAPL", "trading symbol")
	flag.IntVar(&cfg.ShortWindow, "short-window", 20, "short SMA window length")
	flag.IntVar(&cfg.LongWindow, "long-window", 50, "long SMA window length")
	flag.IntVar(&cfg.TradeQty, "trade-qty", 1, "shares per entry order")
	flag.IntVar(&cfg.MaxRetries, "max-retries", 3, "consecutive iteration failures before shutdown")
	flag.DurationVar(&cfg.MarketClosedWait, "market-closed-wait", 5*time.Minute, "sleep while the market is closed")
	flag.DurationVar(&cfg.IterationWait, "iteration-wait", 60*time.Second, "pause between trading iterations")
	flag.DurationVar(&cfg.RetryWait, "retry-wait", 10*time.Second, "backoff after a failed iteration")
	flag.StringVar(&cfg.OrderType, "order-type", "market", "order type: market or limit")
	flag.StringVar(&cfg.TimeInForce, "time-in-force", "gtc", "time in force: day or gtc")
	flag.StringVar(&cfg.DecisionsPath, "decisions-path", "decisions.ndjson", "path to decisions log")
	flag.StringVar(&cfg.MonitorAddr, "monitor-addr", "", "listen address for /metrics and /status (empty disables)")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.StringVar(&cfg.BaseURL, "base-url", "https://paper-api.alpaca.markets", "trading API base URL")
	flag.Parse()

	cfg.APIKey = os.Getenv("APCA_API_KEY_ID")
	cfg.APISecret = os.Getenv("APCA_API_SECRET_KEY")

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if cfg.ShortWindow < 1 {
		return fmt.Errorf("short-window must be >= 1")
	}
	if cfg.ShortWindow >= cfg.LongWindow {
		return fmt.Errorf("short-window must be < long-window")
	}
	if cfg.TradeQty <= 0 {
		return fmt.Errorf("trade-qty must be > 0")
	}
	if cfg.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be > 0")
	}
	if cfg.MarketClosedWait <= 0 || cfg.IterationWait <= 0 || cfg.RetryWait <= 0 {
		return fmt.Errorf("wait durations must be > 0")
	}
	switch cfg.OrderType {
	case "market", "limit":
	default:
		return fmt.Errorf("unsupported order type: %s", cfg.OrderType)
	}
	switch cfg.TimeInForce {
	case "day", "gtc":
	default:
		return fmt.Errorf("unsupported time in force: %s", cfg.TimeInForce)
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return fmt.Errorf("APCA_API_KEY_ID and APCA_API_SECRET_KEY are required")
	}
	return nil
}
