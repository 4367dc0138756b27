package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"smabot/internal/broker"
	"smabot/internal/config"
	"smabot/internal/engine"
	"smabot/internal/logging"
	"smabot/internal/metrics"
	"smabot/internal/state"
	"smabot/internal/strategy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	runID := generateRunID()
	decisions, err := engine.NewDecisionLogger(cfg.DecisionsPath, runID, logger)
	if err != nil {
		logger.Fatal("decision logger", zap.Error(err))
	}
	defer func() {
		if err := decisions.Close(); err != nil {
			logger.Warn("failed to close decision logger", zap.Error(err))
		}
	}()

	client, err := broker.Dial(cfg.APIKey, cfg.APISecret, cfg.BaseURL, logger)
	if err != nil {
		logger.Fatal("broker connection", zap.Error(err))
	}

	crossover, err := strategy.NewCrossover(cfg.ShortWindow, cfg.LongWindow)
	if err != nil {
		logger.Fatal("strategy", zap.Error(err))
	}

	store := state.NewStore()
	bot := engine.New(cfg, client, crossover, store, decisions, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	if cfg.MonitorAddr != "" {
		srv := startMonitor(cfg.MonitorAddr, store, logger)
		defer func() {
			_ = srv.Close()
		}()
	}

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("bot stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("bot shutdown complete")
}

func startMonitor(addr string, store *state.Store, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(store.Snapshot()); err != nil {
			logger.Warn("failed to encode status", zap.Error(err))
		}
	})
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("monitor server stopped", zap.Error(err))
		}
	}()
	logger.Info("monitor listening", zap.String("addr", addr))
	return srv
}

func generateRunID() string {
	timestamp := time.Now().UTC().Format("20060102T150405")
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return timestamp
	}
	return timestamp + "-" + hex.EncodeToString(randomBytes)
}
