package ledgermock

import (
	"context"

	"quorum-lending/internal/domain/ledger"
)

var _ ledger.Ledger = (*Ledger)(nil)

// Ledger is a function-backed ledger. Unset transfer funcs succeed; Base, when
// set, answers every call whose func is nil.
type Ledger struct {
	Base           ledger.Ledger
	AssetName      string
	PoolPrincipal  string
	BalanceOfFn    func(ctx context.Context, holder string) (uint64, error)
	TransferFn     func(ctx context.Context, to string, amount uint64) (bool, error)
	TransferFromFn func(ctx context.Context, from, to string, amount uint64) (bool, error)
	MintFn         func(ctx context.Context, to string, amount uint64) error
}

func (m *Ledger) Asset() string {
	if m.Base != nil && m.AssetName == "" {
		return m.Base.Asset()
	}
	return m.AssetName
}

func (m *Ledger) Pool() string {
	if m.Base != nil && m.PoolPrincipal == "" {
		return m.Base.Pool()
	}
	return m.PoolPrincipal
}

func (m *Ledger) BalanceOf(ctx context.Context, holder string) (uint64, error) {
	switch {
	case m.BalanceOfFn != nil:
		return m.BalanceOfFn(ctx, holder)
	case m.Base != nil:
		return m.Base.BalanceOf(ctx, holder)
	}
	return 0, nil
}

func (m *Ledger) Transfer(ctx context.Context, to string, amount uint64) (bool, error) {
	switch {
	case m.TransferFn != nil:
		return m.TransferFn(ctx, to, amount)
	case m.Base != nil:
		return m.Base.Transfer(ctx, to, amount)
	}
	return true, nil
}

func (m *Ledger) TransferFrom(ctx context.Context, from, to string, amount uint64) (bool, error) {
	switch {
	case m.TransferFromFn != nil:
		return m.TransferFromFn(ctx, from, to, amount)
	case m.Base != nil:
		return m.Base.TransferFrom(ctx, from, to, amount)
	}
	return true, nil
}

func (m *Ledger) Mint(ctx context.Context, to string, amount uint64) error {
	switch {
	case m.MintFn != nil:
		return m.MintFn(ctx, to, amount)
	case m.Base != nil:
		return m.Base.Mint(ctx, to, amount)
	}
	return nil
}
