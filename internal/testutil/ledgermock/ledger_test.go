package ledgermock

import (
	"context"
	"testing"
)

func TestLedger_Defaults(t *testing.T) {
	ctx := context.Background()
	m := &Ledger{AssetName: "QLT", PoolPrincipal: "pool"}

	if m.Asset() != "QLT" || m.Pool() != "pool" {
		t.Fatalf("identity: %s %s", m.Asset(), m.Pool())
	}
	if ok, err := m.Transfer(ctx, "x", 1); !ok || err != nil {
		t.Fatalf("Transfer default = %v, %v", ok, err)
	}
	if ok, err := m.TransferFrom(ctx, "x", "y", 1); !ok || err != nil {
		t.Fatalf("TransferFrom default = %v, %v", ok, err)
	}
	if b, err := m.BalanceOf(ctx, "x"); b != 0 || err != nil {
		t.Fatalf("BalanceOf default = %d, %v", b, err)
	}
}

func TestLedger_FallsBackToBase(t *testing.T) {
	ctx := context.Background()
	base := &Ledger{
		AssetName:     "BASE",
		PoolPrincipal: "base-pool",
		BalanceOfFn:   func(context.Context, string) (uint64, error) { return 42, nil },
		TransferFn:    func(context.Context, string, uint64) (bool, error) { return false, nil },
	}
	m := &Ledger{Base: base}

	if m.Asset() != "BASE" || m.Pool() != "base-pool" {
		t.Fatalf("identity not delegated")
	}
	if b, _ := m.BalanceOf(ctx, "x"); b != 42 {
		t.Fatalf("BalanceOf = %d", b)
	}
	if ok, _ := m.Transfer(ctx, "x", 1); ok {
		t.Fatalf("Transfer should delegate to base")
	}

	m.TransferFn = func(context.Context, string, uint64) (bool, error) { return true, nil }
	if ok, _ := m.Transfer(ctx, "x", 1); !ok {
		t.Fatalf("own func must win over base")
	}
}
