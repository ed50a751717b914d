package loan

import (
	"errors"
	"math"
	"time"
)

const MaxCreditScore = 100

// MaxTally is the largest yes/no weight a loan can carry; tallies are stored
// in signed 64-bit columns on sqlite and postgres.
const MaxTally = math.MaxInt64

var (
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrInvalidCreditScore       = errors.New("invalid credit score")
	ErrInsufficientPoolFunds    = errors.New("insufficient pool funds")
	ErrInvalidLoanID            = errors.New("invalid loan id")
	ErrVotingClosed             = errors.New("voting closed")
	ErrAlreadyVoted             = errors.New("already voted")
	ErrAlreadyResolved          = errors.New("loan already resolved")
	ErrNotApproved              = errors.New("loan not approved")
	ErrVotingStillOpen          = errors.New("voting still open")
	ErrNotFundedOrAlreadyRepaid = errors.New("loan not funded or already repaid")
	ErrNotBorrower              = errors.New("caller is not the borrower")
	ErrTransferFailed           = errors.New("transfer failed")
	ErrTallyOverflow            = errors.New("vote tally overflow")
)

type Status string

const (
	StatusVoting   Status = "voting"
	StatusApproved Status = "approved"
	StatusFunded   Status = "funded"
	StatusRepaid   Status = "repaid"
)

// Loan ids are assigned sequentially from 1 by the platform, never by the database.
type Loan struct {
	ID             uint64    `gorm:"column:id;primaryKey;autoIncrement:false" json:"loan_id"`
	Borrower       string    `gorm:"column:borrower;size:32;not null;index:idx_loans_borrower" json:"borrower"`
	Amount         uint64    `gorm:"column:amount;not null" json:"amount"`
	CreditScore    uint8     `gorm:"column:credit_score;not null" json:"credit_score"`
	VotingDeadline time.Time `gorm:"column:voting_deadline;not null" json:"voting_deadline"`
	YesWeight      uint64    `gorm:"column:yes_weight;not null;default:0" json:"yes_weight"`
	NoWeight       uint64    `gorm:"column:no_weight;not null;default:0" json:"no_weight"`
	Approved       bool      `gorm:"column:approved;not null;default:false" json:"approved"`
	Funded         bool      `gorm:"column:funded;not null;default:false" json:"funded"`
	Repaid         bool      `gorm:"column:repaid;not null;default:false" json:"repaid"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

func (l *Loan) Status() Status {
	switch {
	case l.Repaid:
		return StatusRepaid
	case l.Funded:
		return StatusFunded
	case l.Approved:
		return StatusApproved
	default:
		return StatusVoting
	}
}

// VotingOpen reports whether votes may still be cast at now.
func (l *Loan) VotingOpen(now time.Time) bool { return now.Before(l.VotingDeadline) }

// Vote marks that Voter has voted on LoanID. The choice itself is not stored.
type Vote struct {
	LoanID    uint64    `gorm:"column:loan_id;primaryKey;autoIncrement:false"`
	Voter     string    `gorm:"column:voter;primaryKey;size:32"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Vote) TableName() string { return "loan_votes" }

// ValidateRequest checks the request inputs in the order the platform reports them.
func ValidateRequest(amount uint64, creditScore int) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if creditScore <= 0 || creditScore > MaxCreditScore {
		return ErrInvalidCreditScore
	}
	return nil
}

// AddWeight returns tally+weight, or ErrTallyOverflow past MaxTally.
func AddWeight(tally, weight uint64) (uint64, error) {
	if weight > MaxTally || tally > MaxTally-weight {
		return tally, ErrTallyOverflow
	}
	return tally + weight, nil
}
