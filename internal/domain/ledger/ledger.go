// Package ledger describes the external fungible-value custodian the platform
// funds loans from. Implementations must make every call all-or-nothing and
// must honour the transaction they are bound to.
package ledger

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidAmount = errors.New("invalid transfer amount")

type Ledger interface {
	// Asset names the single asset this ledger holds.
	Asset() string
	// Pool is the custody account the platform lends from.
	Pool() string
	BalanceOf(ctx context.Context, holder string) (uint64, error)
	// Transfer moves amount from the pool to to. It reports false, with no
	// side effects, when the pool cannot cover amount.
	Transfer(ctx context.Context, to string, amount uint64) (bool, error)
	// TransferFrom moves amount between two holders with the same contract
	// as Transfer.
	TransferFrom(ctx context.Context, from, to string, amount uint64) (bool, error)
	Mint(ctx context.Context, to string, amount uint64) error
}

// Balance is the row layout of the relational ledger implementation.
type Balance struct {
	Holder    string    `gorm:"column:holder;primaryKey;size:32"`
	Amount    uint64    `gorm:"column:amount;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Balance) TableName() string { return "token_balances" }
