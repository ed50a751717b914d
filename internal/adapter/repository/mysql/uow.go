package mysql

import (
	"context"

	"quorum-lending/internal/domain/loan"
	"quorum-lending/internal/domain/platform"
	"quorum-lending/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct {
	db    *gorm.DB
	asset string
	pool  string
}

// NewGormUoW binds every repository, the custody ledger included, to one
// transaction per call.
func NewGormUoW(db *gorm.DB, asset, pool string) *GormUoW {
	return &GormUoW{db: db, asset: asset, pool: pool}
}

func (u *GormUoW) repos(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Loans:    &LoanRepository{db: tx},
		Votes:    &VoteRepository{db: tx},
		Members:  &MemberRepository{db: tx},
		Settings: &SettingsRepository{db: tx},
		Events:   &EventRepository{db: tx},
		Ledger:   NewLedgerRepository(tx, u.asset, u.pool),
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(u.repos(tx))
	})
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID uint64, fn func(r uow.Repos, s *platform.Settings, l *loan.Loan) error) error {
	return u.WithinTx(ctx, func(r uow.Repos) error {
		s, err := r.Settings.Get(ctx)
		if err != nil {
			return err
		}
		if !s.ValidLoanID(loanID) {
			return loan.ErrInvalidLoanID
		}
		// lock the loan row up-front to prevent races
		l, err := r.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, s, l)
	})
}

var _ uow.UnitOfWork = (*GormUoW)(nil)
