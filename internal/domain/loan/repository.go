package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	// GetByIDForUpdate locks the loan row for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, id uint64) (*Loan, error)
	// ListIDsByBorrower returns the borrower's loan ids in request order.
	ListIDsByBorrower(ctx context.Context, borrower string) ([]uint64, error)
}

type VoteRepository interface {
	// Create records the vote; a second vote by the same voter yields ErrAlreadyVoted.
	Create(ctx context.Context, v *Vote) error
	Exists(ctx context.Context, loanID uint64, voter string) (bool, error)
}
