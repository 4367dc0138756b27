package config

import (
	"flag"
	"os"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Symbol:           "AAPL",
		ShortWindow:      20,
		LongWindow:       50,
		TradeQty:         1,
		MaxRetries:       3,
		MarketClosedWait: 5 * time.Minute,
		IterationWait:    time.Minute,
		RetryWait:        10 * time.Second,
		OrderType:        "market",
		TimeInForce:      "gtc",
		APIKey:           "key",
		APISecret:        "secret",
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	if err := validate(validConfig()); err != nil {
		t.Fatalf("expected config to be valid, got %v", err)
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	cases := map[string]func(*Config){
		"missing symbol":       func(c *Config) { c.Symbol = "" },
		"short >= long":        func(c *Config) { c.ShortWindow = 50 },
		"non-positive qty":     func(c *Config) { c.TradeQty = 0 },
		"non-positive retries": func(c *Config) { c.MaxRetries = 0 },
		"zero retry wait":      func(c *Config) { c.RetryWait = 0 },
		"bad order type":       func(c *Config) { c.OrderType = "stop" },
		"bad time in force":    func(c *Config) { c.TimeInForce = "ioc" },
		"missing credentials":  func(c *Config) { c.APIKey = "" },
	}
	for name, mutate := range cases {
		cfg := validConfig()
		mutate(&cfg)
		if err := validate(cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadReadsCredentialsFromEnv(t *testing.T) {
	resetFlags := resetFlagSet(t)
	defer resetFlags()

	t.Setenv("APCA_API_KEY_ID", "env-key")
	t.Setenv("APCA_API_SECRET_KEY", "env-secret")
	os.Args = []string{"cmd", "--symbol", "MSFT", "--short-window", "5", "--long-window", "12"}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.APIKey != "env-key" || cfg.APISecret != "env-secret" {
		t.Fatalf("expected credentials from env, got %q/%q", cfg.APIKey, cfg.APISecret)
	}
	if cfg.Symbol != "MSFT" {
		t.Fatalf("expected symbol from CLI, got %q", cfg.Symbol)
	}
	if cfg.ShortWindow != 5 || cfg.LongWindow != 12 {
		t.Fatalf("expected windows from CLI, got %d/%d", cfg.ShortWindow, cfg.LongWindow)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("expected default max retries, got %d", cfg.MaxRetries)
	}
}

func resetFlagSet(t *testing.T) func() {
	t.Helper()
	originalArgs := os.Args
	originalCommandLine := flag.CommandLine
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	return func() {
		flag.CommandLine = originalCommandLine
		os.Args = originalArgs
	}
}
