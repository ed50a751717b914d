package loan

import (
	"time"

	"quorum-lending/internal/domain/loan"
)

type RequestLoanInput struct {
	Borrower    string
	Amount      uint64
	CreditScore int
}

type LoanDTO struct {
	LoanID         uint64    `json:"loan_id"`
	Borrower       string    `json:"borrower"`
	Amount         uint64    `json:"amount"`
	CreditScore    uint8     `json:"credit_score"`
	VotingDeadline time.Time `json:"voting_deadline"`
	YesWeight      uint64    `json:"yes_weight"`
	NoWeight       uint64    `json:"no_weight"`
	Approved       bool      `json:"approved"`
	Funded         bool      `json:"funded"`
	Repaid         bool      `json:"repaid"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func ToDTO(l *loan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:         l.ID,
		Borrower:       l.Borrower,
		Amount:         l.Amount,
		CreditScore:    l.CreditScore,
		VotingDeadline: l.VotingDeadline,
		YesWeight:      l.YesWeight,
		NoWeight:       l.NoWeight,
		Approved:       l.Approved,
		Funded:         l.Funded,
		Repaid:         l.Repaid,
		Status:         string(l.Status()),
		CreatedAt:      l.CreatedAt,
	}
}

type BorrowerLoansDTO struct {
	Borrower string   `json:"borrower"`
	LoanIDs  []uint64 `json:"loan_ids"`
}

type HasVotedDTO struct {
	LoanID   uint64 `json:"loan_id"`
	Voter    string `json:"voter"`
	HasVoted bool   `json:"has_voted"`
}

// event payloads
type requestedData struct {
	Amount         uint64    `json:"amount"`
	CreditScore    uint8     `json:"credit_score"`
	VotingDeadline time.Time `json:"voting_deadline"`
}

type amountData struct {
	Amount uint64 `json:"amount"`
}
