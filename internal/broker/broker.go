package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"smabot/internal/md"
)

type Clock struct {
	IsOpen    bool
	NextOpen  time.Time
	NextClose time.Time
}

type AccountInfo struct {
	BuyingPower    float64
	Cash           float64
	PortfolioValue float64
	Equity         float64
}

type Position struct {
	Symbol        string
	Qty           float64
	MarketValue   float64
	AvgEntryPrice float64
}

type OrderRequest struct {
	Symbol      string
	Qty         int
	Side        alpaca.Side
	Type        alpaca.OrderType
	TimeInForce alpaca.TimeInForce
}

type OrderRef struct {
	ID     string
	Status string
}

// Client wraps the Alpaca trading and market data APIs behind the small
// surface the bot consumes.
type Client struct {
	trading *alpaca.Client
	data    *marketdata.Client
	log     *zap.Logger
}

// Dial constructs the brokerage clients and verifies connectivity with a
// clock probe. A failed probe is fatal: the bot must not enter its loop on
// an unverified connection.
func Dial(apiKey, apiSecret, baseURL string, log *zap.Logger) (*Client, error) {
	c := &Client{
		trading: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
		data: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		log: log,
	}

	if _, err := c.trading.GetClock(); err != nil {
		return nil, fmt.Errorf("connectivity probe: %w", err)
	}
	acct, err := c.trading.GetAccount()
	if err != nil {
		return nil, fmt.Errorf("fetch account: %w", err)
	}
	log.Info("broker connected", zap.String("account", acct.AccountNumber))
	return c, nil
}

func (c *Client) Clock(ctx context.Context) (Clock, error) {
	clock, err := c.trading.GetClock()
	if err != nil {
		c.log.Error("fetch clock failed", zap.Error(err))
		return Clock{}, err
	}
	return Clock{
		IsOpen:    clock.IsOpen,
		NextOpen:  clock.NextOpen,
		NextClose: clock.NextClose,
	}, nil
}

// AccountInfo re-fetches the account on every call; nothing is cached.
func (c *Client) AccountInfo(ctx context.Context) (AccountInfo, error) {
	acct, err := c.trading.GetAccount()
	if err != nil {
		c.log.Error("fetch account failed", zap.Error(err))
		return AccountInfo{}, err
	}
	return AccountInfo{
		BuyingPower:    acct.BuyingPower.InexactFloat64(),
		Cash:           acct.Cash.InexactFloat64(),
		PortfolioValue: acct.PortfolioValue.InexactFloat64(),
		Equity:         acct.Equity.InexactFloat64(),
	}, nil
}

// Position returns (nil, nil) when no position exists for the symbol.
func (c *Client) Position(ctx context.Context, symbol string) (*Position, error) {
	pos, err := c.trading.GetPosition(symbol)
	if err != nil {
		var apiErr *alpaca.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return nil, nil
		}
		c.log.Error("fetch position failed", zap.String("symbol", symbol), zap.Error(err))
		return nil, err
	}
	position := &Position{
		Symbol:        pos.Symbol,
		Qty:           pos.Qty.InexactFloat64(),
		AvgEntryPrice: pos.AvgEntryPrice.InexactFloat64(),
	}
	if pos.MarketValue != nil {
		position.MarketValue = pos.MarketValue.InexactFloat64()
	}
	return position, nil
}

// Bars fetches up to limit daily bars ending at the current day, raw
// adjustment. The start is padded to cover weekends and holidays.
func (c *Client) Bars(ctx context.Context, symbol string, limit int) (md.Series, error) {
	start := time.Now().UTC().AddDate(0, 0, -(2*limit + 10))
	bars, err := c.data.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.Raw,
		Start:      start,
	})
	if err != nil {
		c.log.Error("fetch bars failed", zap.String("symbol", symbol), zap.Error(err))
		return md.Series{}, err
	}
	if len(bars) == 0 {
		c.log.Warn("no bars returned", zap.String("symbol", symbol))
	}
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	out := make([]md.Bar, len(bars))
	for i, bar := range bars {
		out[i] = md.Bar{
			Timestamp: bar.Timestamp,
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
		}
	}
	return md.NewSeries(out), nil
}

// IsTradeable reports whether the asset is both tradable and active. Any
// lookup failure, including an unknown symbol, yields false.
func (c *Client) IsTradeable(ctx context.Context, symbol string) bool {
	asset, err := c.trading.GetAsset(symbol)
	if err != nil {
		c.log.Warn("fetch asset failed", zap.String("symbol", symbol), zap.Error(err))
		return false
	}
	return asset.Tradable && asset.Status == alpaca.AssetActive
}

func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (OrderRef, error) {
	qty := decimal.NewFromInt(int64(req.Qty))
	order, err := c.trading.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:      req.Symbol,
		Qty:         &qty,
		Side:        req.Side,
		Type:        req.Type,
		TimeInForce: req.TimeInForce,
	})
	if err != nil {
		c.log.Error("place order failed",
			zap.String("symbol", req.Symbol),
			zap.String("side", string(req.Side)),
			zap.Int("qty", req.Qty),
			zap.Error(err))
		return OrderRef{}, err
	}
	c.log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("symbol", req.Symbol),
		zap.String("side", string(req.Side)),
		zap.Int("qty", req.Qty),
		zap.String("status", string(order.Status)))
	return OrderRef{ID: order.ID, Status: string(order.Status)}, nil
}

// WaitForContext suspends for delay or until ctx is canceled.
func WaitForContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
