package state

import (
	"testing"
	"time"

	"smabot/internal/broker"
)

func TestStoreSnapshotReflectsUpdates(t *testing.T) {
	store := NewStore()
	store.SetState("RETRY_BACKOFF")
	store.SetRetries(2)
	store.SetAccount(broker.AccountInfo{Equity: 1000, Cash: 500})
	store.SetDecision("BUY", "order_submitted", time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC))

	snapshot := store.Snapshot()
	if snapshot.State != "RETRY_BACKOFF" || snapshot.Retries != 2 {
		t.Fatalf("unexpected loop state: %+v", snapshot)
	}
	if snapshot.Account.Equity != 1000 {
		t.Fatalf("expected equity 1000, got %v", snapshot.Account.Equity)
	}
	if snapshot.LastAction != "BUY" || snapshot.LastResult != "order_submitted" {
		t.Fatalf("unexpected decision fields: %+v", snapshot)
	}
}

func TestStoreSnapshotCopiesPosition(t *testing.T) {
	store := NewStore()
	store.SetPosition(&broker.Position{Symbol: "AAPL", Qty: 3})

	snapshot := store.Snapshot()
	snapshot.Position.Qty = 99

	if got := store.Snapshot().Position.Qty; got != 3 {
		t.Fatalf("snapshot mutation leaked into store: qty %v", got)
	}
}
