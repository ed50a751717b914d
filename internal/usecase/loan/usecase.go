package loan

import (
	"context"
	"fmt"
	"log/slog"

	"quorum-lending/internal/domain/event"
	"quorum-lending/internal/domain/loan"
	"quorum-lending/internal/domain/platform"
	"quorum-lending/internal/domain/uow"
	"quorum-lending/pkg/clock"
	"quorum-lending/pkg/guard"
	"quorum-lending/pkg/logger"
)

// Usecase covers the loan lifecycle outside voting: request, funding,
// repayment and the read-only lookups.
type Usecase struct {
	uow   uow.UnitOfWork
	guard *guard.Guard
	clock clock.Clock
}

func NewUsecase(tx uow.UnitOfWork, g *guard.Guard, c clock.Clock) *Usecase {
	return &Usecase{uow: tx, guard: g, clock: c}
}

// Request opens a loan for in.Borrower. The pool check is point-in-time and
// reserves nothing.
func (u *Usecase) Request(ctx context.Context, in RequestLoanInput) (*LoanDTO, error) {
	ctx, release, err := u.guard.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := loan.ValidateRequest(in.Amount, in.CreditScore); err != nil {
		return nil, err
	}

	now := u.clock.Now()
	var dto *LoanDTO
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		s, err := r.Settings.GetForUpdate(ctx)
		if err != nil {
			return err
		}
		pool, err := r.Ledger.BalanceOf(ctx, r.Ledger.Pool())
		if err != nil {
			return fmt.Errorf("pool balance: %w", err)
		}
		if pool < in.Amount {
			return loan.ErrInsufficientPoolFunds
		}

		s.LoanCount++
		if err := r.Settings.Save(ctx, s); err != nil {
			return err
		}
		l := &loan.Loan{
			ID:             s.LoanCount,
			Borrower:       in.Borrower,
			Amount:         in.Amount,
			CreditScore:    uint8(in.CreditScore),
			VotingDeadline: now.Add(s.VotingPeriod()),
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		data := requestedData{Amount: l.Amount, CreditScore: l.CreditScore, VotingDeadline: l.VotingDeadline}
		if err := event.Record(ctx, r.Events, event.TypeLoanRequested, l.ID, l.Borrower, data, now); err != nil {
			return err
		}
		dto = ToDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "loan requested",
		slog.Uint64("loan_id", dto.LoanID),
		slog.String("borrower", dto.Borrower),
		slog.Uint64("amount", dto.Amount),
	)
	return dto, nil
}

func (u *Usecase) Get(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	var dto *LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := checkLoanID(ctx, r, loanID); err != nil {
			return err
		}
		l, err := r.Loans.GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		dto = ToDTO(l)
		return nil
	})
	return dto, err
}

// ListByBorrower returns every loan id requested by borrower, oldest first.
// Unknown borrowers get an empty list.
func (u *Usecase) ListByBorrower(ctx context.Context, borrower string) (*BorrowerLoansDTO, error) {
	out := &BorrowerLoansDTO{Borrower: borrower}
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		ids, err := r.Loans.ListIDsByBorrower(ctx, borrower)
		out.LoanIDs = ids
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) HasVoted(ctx context.Context, loanID uint64, voter string) (*HasVotedDTO, error) {
	out := &HasVotedDTO{LoanID: loanID, Voter: voter}
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := checkLoanID(ctx, r, loanID); err != nil {
			return err
		}
		ok, err := r.Votes.Exists(ctx, loanID, voter)
		out.HasVoted = ok
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Fund pays an approved loan out of the pool once voting has closed. The
// funded flag is written before the transfer; a refused transfer rolls both
// back.
func (u *Usecase) Fund(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	ctx, release, err := u.guard.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	now := u.clock.Now()
	var dto *LoanDTO
	err = u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, _ *platform.Settings, l *loan.Loan) error {
		if !l.Approved || l.Funded {
			return loan.ErrNotApproved
		}
		if l.VotingOpen(now) {
			return loan.ErrVotingStillOpen
		}

		l.Funded = true
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		ok, err := r.Ledger.Transfer(ctx, l.Borrower, l.Amount)
		if err != nil {
			return fmt.Errorf("%w: %w", loan.ErrTransferFailed, err)
		}
		if !ok {
			return loan.ErrTransferFailed
		}
		if err := event.Record(ctx, r.Events, event.TypeLoanFunded, l.ID, l.Borrower, amountData{Amount: l.Amount}, now); err != nil {
			return err
		}
		dto = ToDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "loan funded", slog.Uint64("loan_id", loanID), slog.Uint64("amount", dto.Amount))
	return dto, nil
}

// Repay returns the principal from the borrower to the pool. Only the borrower
// may repay, and only once.
func (u *Usecase) Repay(ctx context.Context, loanID uint64, caller string) (*LoanDTO, error) {
	ctx, release, err := u.guard.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	now := u.clock.Now()
	var dto *LoanDTO
	err = u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, _ *platform.Settings, l *loan.Loan) error {
		if !l.Funded || l.Repaid {
			return loan.ErrNotFundedOrAlreadyRepaid
		}
		if caller != l.Borrower {
			return loan.ErrNotBorrower
		}

		l.Repaid = true
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		ok, err := r.Ledger.TransferFrom(ctx, l.Borrower, r.Ledger.Pool(), l.Amount)
		if err != nil {
			return fmt.Errorf("%w: %w", loan.ErrTransferFailed, err)
		}
		if !ok {
			return loan.ErrTransferFailed
		}
		if err := event.Record(ctx, r.Events, event.TypeLoanRepaid, l.ID, l.Borrower, amountData{Amount: l.Amount}, now); err != nil {
			return err
		}
		dto = ToDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "loan repaid", slog.Uint64("loan_id", loanID), slog.Uint64("amount", dto.Amount))
	return dto, nil
}

func checkLoanID(ctx context.Context, r uow.Repos, id uint64) error {
	s, err := r.Settings.Get(ctx)
	if err != nil {
		return err
	}
	if !s.ValidLoanID(id) {
		return loan.ErrInvalidLoanID
	}
	return nil
}
