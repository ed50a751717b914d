package mysql

import (
	"context"
	"errors"

	"quorum-lending/internal/domain/ledger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository is the relational custody ledger. Bound to a transaction it
// joins that transaction; each transfer also runs in its own savepoint so a
// partial move never survives.
type LedgerRepository struct {
	db    *gorm.DB
	asset string
	pool  string
}

func NewLedgerRepository(db *gorm.DB, asset, pool string) *LedgerRepository {
	return &LedgerRepository{db: db, asset: asset, pool: pool}
}

func (r *LedgerRepository) Asset() string { return r.asset }
func (r *LedgerRepository) Pool() string  { return r.pool }

func (r *LedgerRepository) BalanceOf(ctx context.Context, holder string) (uint64, error) {
	var b ledger.Balance
	err := r.db.WithContext(ctx).Where("holder = ?", holder).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return b.Amount, nil
}

func (r *LedgerRepository) Transfer(ctx context.Context, to string, amount uint64) (bool, error) {
	return r.move(ctx, r.pool, to, amount)
}

func (r *LedgerRepository) TransferFrom(ctx context.Context, from, to string, amount uint64) (bool, error) {
	return r.move(ctx, from, to, amount)
}

func (r *LedgerRepository) Mint(ctx context.Context, to string, amount uint64) error {
	if amount == 0 {
		return ledger.ErrInvalidAmount
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return credit(tx, to, amount)
	})
}

func (r *LedgerRepository) move(ctx context.Context, from, to string, amount uint64) (bool, error) {
	if amount == 0 {
		return false, ledger.ErrInvalidAmount
	}
	moved := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// conditional debit: no row changes when the balance is short
		res := tx.Model(&ledger.Balance{}).
			Where("holder = ? AND amount >= ?", from, amount).
			Update("amount", gorm.Expr("amount - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := credit(tx, to, amount); err != nil {
			return err
		}
		moved = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return moved, nil
}

func credit(tx *gorm.DB, holder string, amount uint64) error {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&ledger.Balance{Holder: holder}).Error; err != nil {
		return err
	}
	return tx.Model(&ledger.Balance{}).
		Where("holder = ?", holder).
		Update("amount", gorm.Expr("amount + ?", amount)).Error
}

var _ ledger.Ledger = (*LedgerRepository)(nil)
