package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"smabot/internal/broker"
	"smabot/internal/config"
	"smabot/internal/execution"
	"smabot/internal/md"
	"smabot/internal/metrics"
	"smabot/internal/state"
	"smabot/internal/strategy"
)

// State of the polling loop.
type State string

const (
	StateRunning      State = "RUNNING"
	StateMarketClosed State = "SLEEPING_MARKET_CLOSED"
	StateRetryBackoff State = "RETRY_BACKOFF"
	StateShutdown     State = "SHUTDOWN"
)

// ErrRetriesExhausted reports that consecutive iteration failures reached
// the configured maximum.
var ErrRetriesExhausted = errors.New("max retries reached")

// MarketService is the brokerage capability surface the loop consumes.
type MarketService interface {
	Clock(ctx context.Context) (broker.Clock, error)
	AccountInfo(ctx context.Context) (broker.AccountInfo, error)
	Position(ctx context.Context, symbol string) (*broker.Position, error)
	Bars(ctx context.Context, symbol string, limit int) (md.Series, error)
	IsTradeable(ctx context.Context, symbol string) bool
	PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderRef, error)
}

// WaitFunc suspends until the delay elapses or ctx is canceled.
type WaitFunc func(ctx context.Context, delay time.Duration) error

type Engine struct {
	cfg       config.Config
	svc       MarketService
	strategy  strategy.Strategy
	executor  *execution.Executor
	store     *state.Store
	decisions *DecisionLogger
	log       *zap.Logger
	wait      WaitFunc

	state   State
	retries int
	runID   string
}

func New(cfg config.Config, svc MarketService, strat strategy.Strategy, store *state.Store, decisions *DecisionLogger, log *zap.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		svc:       svc,
		strategy:  strat,
		executor:  execution.New(svc, log),
		store:     store,
		decisions: decisions,
		log:       log,
		wait:      broker.WaitForContext,
		state:     StateRunning,
		runID:     decisions.RunID(),
	}
}

// SetWait replaces the wait function; tests use this to run the loop
// without wall-clock delays.
func (e *Engine) SetWait(wait WaitFunc) {
	e.wait = wait
}

// Run drives the loop until ctx is canceled or the retry budget is
// exhausted. A market-closed sleep never touches the retry counter; any
// successful iteration resets it.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("starting bot",
		zap.String("symbol", e.cfg.Symbol),
		zap.Int("short_window", e.cfg.ShortWindow),
		zap.Int("long_window", e.cfg.LongWindow),
		zap.Int("max_retries", e.cfg.MaxRetries))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !e.marketOpen(ctx) {
			e.setState(StateMarketClosed)
			metrics.MarketClosedSleeps.Inc()
			e.log.Info("market closed, sleeping", zap.Duration("wait", e.cfg.MarketClosedWait))
			if err := e.wait(ctx, e.cfg.MarketClosedWait); err != nil {
				return err
			}
			e.setState(StateRunning)
			continue
		}

		if err := e.iterate(ctx); err != nil {
			e.retries++
			e.store.SetRetries(e.retries)
			metrics.IterationFailures.Inc()
			e.log.Error("iteration failed",
				zap.Int("attempt", e.retries),
				zap.Int("max", e.cfg.MaxRetries),
				zap.Error(err))
			if e.retries >= e.cfg.MaxRetries {
				e.setState(StateShutdown)
				metrics.RetriesExhausted.Inc()
				e.log.Error("max retries reached, shutting down")
				return fmt.Errorf("%w after %d attempts", ErrRetriesExhausted, e.retries)
			}
			e.setState(StateRetryBackoff)
			if err := e.wait(ctx, e.cfg.RetryWait); err != nil {
				return err
			}
			e.setState(StateRunning)
			continue
		}

		e.retries = 0
		e.store.SetRetries(0)
		if err := e.wait(ctx, e.cfg.IterationWait); err != nil {
			return err
		}
	}
}

// A failed clock query counts as closed: trading proceeds only on a
// positive open signal.
func (e *Engine) marketOpen(ctx context.Context) bool {
	clock, err := e.svc.Clock(ctx)
	if err != nil {
		e.log.Warn("clock query failed, treating market as closed", zap.Error(err))
		return false
	}
	return clock.IsOpen
}

func (e *Engine) iterate(ctx context.Context) error {
	metrics.Iterations.Inc()

	account, err := e.svc.AccountInfo(ctx)
	if err != nil {
		return fmt.Errorf("refresh account: %w", err)
	}
	e.store.SetAccount(account)

	decision := Decision{
		RunID:     e.runID,
		Timestamp: time.Now().UTC(),
		Symbol:    e.cfg.Symbol,
	}

	if !e.svc.IsTradeable(ctx, e.cfg.Symbol) {
		decision.Action = strategy.Hold
		decision.Result = "not_tradeable"
		e.record(decision)
		e.log.Warn("symbol not tradeable, skipping iteration", zap.String("symbol", e.cfg.Symbol))
		return nil
	}

	series, err := e.svc.Bars(ctx, e.cfg.Symbol, e.cfg.LongWindow+10)
	if err != nil {
		return fmt.Errorf("fetch bars: %w", err)
	}

	action := e.strategy.Decide(series)
	decision.Action = action
	if n := series.Len(); n > 0 {
		decision.BarTime = series.Timestamps[n-1]
		decision.Close = series.Close[n-1]
		decision.ShortSMA = lastValid(md.RollingMean(series.Close, e.cfg.ShortWindow))
		decision.LongSMA = lastValid(md.RollingMean(series.Close, e.cfg.LongWindow))
	}

	if action == strategy.Hold {
		decision.Result = "hold"
		e.record(decision)
		e.log.Info("hold",
			zap.Float64("close", decision.Close),
			zap.Float64("short_sma", decision.ShortSMA),
			zap.Float64("long_sma", decision.LongSMA))
		return nil
	}

	position, err := e.svc.Position(ctx, e.cfg.Symbol)
	if err != nil {
		// Degraded read: a failed lookup means no position, not a
		// failed iteration.
		e.log.Warn("position lookup failed, assuming flat", zap.Error(err))
		position = nil
	}
	e.store.SetPosition(position)

	qty, side := e.sizeTrade(action, position)
	if qty == 0 {
		decision.Result = "no_trade"
		e.record(decision)
		e.log.Info("signal without matching position, no trade", zap.String("action", string(action)))
		return nil
	}

	ref, err := e.executor.ExecuteTrade(ctx, e.cfg.Symbol, qty, side, e.cfg.OrderType, e.cfg.TimeInForce)
	if err != nil {
		decision.Result = "order_failed"
		decision.Error = err.Error()
		e.record(decision)
		return fmt.Errorf("execute trade: %w", err)
	}

	decision.Result = "order_submitted"
	decision.OrderID = ref.ID
	decision.Qty = qty
	e.record(decision)
	metrics.OrdersSubmitted.WithLabelValues(side).Inc()
	e.log.Info("order submitted",
		zap.String("order_id", ref.ID),
		zap.String("side", side),
		zap.Int("qty", qty),
		zap.String("status", ref.Status))
	return nil
}

// sizeTrade maps a signal onto an order: BUY enters a fixed-quantity
// position only when flat, SELL exits the whole position. A signal with no
// matching position sizes to zero.
func (e *Engine) sizeTrade(action strategy.Action, position *broker.Position) (int, string) {
	switch action {
	case strategy.Buy:
		if position != nil && position.Qty > 0 {
			return 0, "buy"
		}
		return e.cfg.TradeQty, "buy"
	case strategy.Sell:
		if position == nil || position.Qty <= 0 {
			return 0, "sell"
		}
		return int(position.Qty), "sell"
	}
	return 0, ""
}

func (e *Engine) setState(s State) {
	e.state = s
	e.store.SetState(string(s))
}

func (e *Engine) record(decision Decision) {
	e.decisions.Append(decision)
	e.store.SetDecision(string(decision.Action), decision.Result, decision.Timestamp)
}

// lastValid returns the final value, or 0 when it is missing. NaN cannot
// be JSON-encoded by the decision log.
func lastValid(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	v := values[len(values)-1]
	if math.IsNaN(v) {
		return 0
	}
	return v
}
