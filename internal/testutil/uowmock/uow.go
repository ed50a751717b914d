package uowmock

import (
	"context"
	"errors"

	"quorum-lending/internal/domain/loan"
	"quorum-lending/internal/domain/platform"
	"quorum-lending/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

type LoanTxFunc = func(r uow.Repos, s *platform.Settings, l *loan.Loan) error

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn     func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinLoanTxFn func(ctx context.Context, loanID uint64, fn LoanTxFunc) error
}

// Convenience fluent setters
func New() *UoW { return &UoW{} }
func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithWithinLoanTx(fn func(context.Context, uint64, LoanTxFunc) error) *UoW {
	m.WithinLoanTxFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

// Wrap delegates to inner and lets edit replace repos before fn sees them,
// e.g. to swap the ledger for a failing one while keeping a real database.
func Wrap(inner uow.UnitOfWork, edit func(r uow.Repos) uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(ctx context.Context, fn func(uow.Repos) error) error {
			return inner.WithinTx(ctx, func(r uow.Repos) error { return fn(edit(r)) })
		},
		WithinLoanTxFn: func(ctx context.Context, id uint64, fn LoanTxFunc) error {
			return inner.WithinLoanTx(ctx, id, func(r uow.Repos, s *platform.Settings, l *loan.Loan) error {
				return fn(edit(r), s, l)
			})
		},
	}
}

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinLoanTx(ctx context.Context, loanID uint64, fn LoanTxFunc) error {
	if m.WithinLoanTxFn != nil {
		return m.WithinLoanTxFn(ctx, loanID, fn)
	}
	return errUnimplemented
}
