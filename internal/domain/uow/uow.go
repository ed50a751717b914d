package uow

import (
	"context"

	"quorum-lending/internal/domain/event"
	"quorum-lending/internal/domain/ledger"
	"quorum-lending/internal/domain/loan"
	"quorum-lending/internal/domain/member"
	"quorum-lending/internal/domain/platform"
)

// Repos are bound to a single transaction; the ledger is too, so a failed
// transfer and everything written before it roll back together.
type Repos struct {
	Loans    loan.Repository
	Votes    loan.VoteRepository
	Members  member.Repository
	Settings platform.Repository
	Events   event.Repository
	Ledger   ledger.Ledger
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: validate the id against the settings row, lock the loan, then pass both in
	WithinLoanTx(ctx context.Context, loanID uint64, fn func(r Repos, s *platform.Settings, l *loan.Loan) error) error
}
