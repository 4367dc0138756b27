package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"go.uber.org/zap"

	"smabot/internal/broker"
)

type fakeOrders struct {
	calls int
	req   broker.OrderRequest
	err   error
}

func (f *fakeOrders) PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderRef, error) {
	f.calls++
	f.req = req
	if f.err != nil {
		return broker.OrderRef{}, f.err
	}
	return broker.OrderRef{ID: "ord-1", Status: "accepted"}, nil
}

func TestExecuteTradeRejectsInvalidSideBeforeBrokerCall(t *testing.T) {
	orders := &fakeOrders{}
	executor := New(orders, zap.NewNop())

	_, err := executor.ExecuteTrade(context.Background(), "AAPL", 1, "hold", "market", "gtc")
	if !errors.Is(err, ErrInvalidSide) {
		t.Fatalf("expected ErrInvalidSide, got %v", err)
	}
	if orders.calls != 0 {
		t.Fatalf("expected no broker call, got %d", orders.calls)
	}
}

func TestExecuteTradeSideIsCaseInsensitive(t *testing.T) {
	orders := &fakeOrders{}
	executor := New(orders, zap.NewNop())

	ref, err := executor.ExecuteTrade(context.Background(), "AAPL", 2, "BUY", "market", "gtc")
	if err != nil {
		t.Fatalf("execute trade: %v", err)
	}
	if ref.ID != "ord-1" {
		t.Fatalf("expected order id ord-1, got %q", ref.ID)
	}
	if orders.req.Side != alpaca.Buy {
		t.Fatalf("expected buy side, got %q", orders.req.Side)
	}
	if orders.req.TimeInForce != alpaca.GTC {
		t.Fatalf("expected gtc, got %q", orders.req.TimeInForce)
	}
}

func TestExecuteTradeRejectsNonPositiveQty(t *testing.T) {
	orders := &fakeOrders{}
	executor := New(orders, zap.NewNop())

	if _, err := executor.ExecuteTrade(context.Background(), "AAPL", 0, "buy", "market", "gtc"); err == nil {
		t.Fatalf("expected error for qty 0")
	}
	if orders.calls != 0 {
		t.Fatalf("expected no broker call, got %d", orders.calls)
	}
}

func TestExecuteTradeWrapsBrokerFailure(t *testing.T) {
	brokerErr := errors.New("rejected")
	orders := &fakeOrders{err: brokerErr}
	executor := New(orders, zap.NewNop())

	_, err := executor.ExecuteTrade(context.Background(), "AAPL", 1, "sell", "market", "day")
	if !errors.Is(err, brokerErr) {
		t.Fatalf("expected wrapped broker error, got %v", err)
	}
	if orders.calls != 1 {
		t.Fatalf("expected one broker call, got %d", orders.calls)
	}
}
