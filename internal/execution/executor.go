package execution

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"go.uber.org/zap"

	"smabot/internal/broker"
)

// ErrInvalidSide is returned before any broker call when the requested
// side is neither "buy" nor "sell".
var ErrInvalidSide = errors.New(`side must be either "buy" or "sell"`)

type OrderService interface {
	PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderRef, error)
}

type Executor struct {
	orders OrderService
	log    *zap.Logger
}

func New(orders OrderService, log *zap.Logger) *Executor {
	return &Executor{orders: orders, log: log}
}

// ExecuteTrade validates the request and submits it through the broker.
// Validation failures never reach the broker; broker failures come back as
// error values, and the caller decides whether they consume a retry.
func (e *Executor) ExecuteTrade(ctx context.Context, symbol string, qty int, side, orderType, timeInForce string) (broker.OrderRef, error) {
	parsedSide, err := parseSide(side)
	if err != nil {
		return broker.OrderRef{}, err
	}
	if qty <= 0 {
		return broker.OrderRef{}, fmt.Errorf("qty must be > 0, got %d", qty)
	}
	parsedType, err := parseOrderType(orderType)
	if err != nil {
		return broker.OrderRef{}, err
	}
	tif, err := parseTimeInForce(timeInForce)
	if err != nil {
		return broker.OrderRef{}, err
	}

	e.log.Info("placing order",
		zap.String("symbol", symbol),
		zap.String("side", string(parsedSide)),
		zap.Int("qty", qty))

	ref, err := e.orders.PlaceOrder(ctx, broker.OrderRequest{
		Symbol:      symbol,
		Qty:         qty,
		Side:        parsedSide,
		Type:        parsedType,
		TimeInForce: tif,
	})
	if err != nil {
		return broker.OrderRef{}, fmt.Errorf("submit order: %w", err)
	}
	return ref, nil
}

func parseSide(value string) (alpaca.Side, error) {
	switch strings.ToLower(value) {
	case "buy":
		return alpaca.Buy, nil
	case "sell":
		return alpaca.Sell, nil
	}
	return "", ErrInvalidSide
}

func parseOrderType(value string) (alpaca.OrderType, error) {
	switch value {
	case "market":
		return alpaca.Market, nil
	case "limit":
		return alpaca.Limit, nil
	}
	return "", fmt.Errorf("unsupported order type: %s", value)
}

func parseTimeInForce(value string) (alpaca.TimeInForce, error) {
	switch value {
	case "day":
		return alpaca.Day, nil
	case "gtc":
		return alpaca.GTC, nil
	}
	return "", fmt.Errorf("unsupported time in force: %s", value)
}
