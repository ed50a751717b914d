package mysql

import (
	"context"
	"errors"

	loanDomain "quorum-lending/internal/domain/loan"

	"gorm.io/gorm"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	return r.get(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *LoanRepository) get(db *gorm.DB, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	if err := db.Where("id = ?", id).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loanDomain.ErrInvalidLoanID
		}
		return nil, err
	}
	return &out, nil
}

func (r *LoanRepository) ListIDsByBorrower(ctx context.Context, borrower string) ([]uint64, error) {
	ids := []uint64{}
	err := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("borrower = ?", borrower).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

type VoteRepository struct{ db *gorm.DB }

func NewVoteRepository(db *gorm.DB) *VoteRepository { return &VoteRepository{db: db} }

func (r *VoteRepository) Create(ctx context.Context, v *loanDomain.Vote) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		if isUniqueViolation(err) {
			return loanDomain.ErrAlreadyVoted
		}
		return err
	}
	return nil
}

func (r *VoteRepository) Exists(ctx context.Context, loanID uint64, voter string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&loanDomain.Vote{}).
		Where("loan_id = ? AND voter = ?", loanID, voter).
		Count(&n).Error
	return n > 0, err
}
