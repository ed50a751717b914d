package platform

import (
	"errors"
	"time"
)

const (
	MinVotingPeriod     = 24 * time.Hour
	DefaultVotingPeriod = 3 * 24 * time.Hour
	DefaultRequiredVote = 3
	SettingsRowID       = 1
)

var (
	ErrNotOwner         = errors.New("caller is not the owner")
	ErrPeriodTooShort   = errors.New("voting period too short")
	ErrInvalidThreshold = errors.New("invalid threshold")
	ErrUnknownAsset     = errors.New("unknown asset")
	ErrNotInitialized   = errors.New("platform settings not initialized")
)

// Settings is the single platform-wide configuration row. LoanCount is the
// highest loan id assigned so far.
type Settings struct {
	ID                  uint8     `gorm:"column:id;primaryKey;autoIncrement:false"`
	Owner               string    `gorm:"column:owner;size:32;not null"`
	VotingPeriodSeconds int64     `gorm:"column:voting_period_seconds;not null"`
	RequiredVotes       uint64    `gorm:"column:required_votes;not null"`
	LoanCount           uint64    `gorm:"column:loan_count;not null;default:0"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Settings) TableName() string { return "platform_settings" }

func NewSettings(owner string, period time.Duration, requiredVotes uint64) *Settings {
	return &Settings{
		ID:                  SettingsRowID,
		Owner:               owner,
		VotingPeriodSeconds: int64(period / time.Second),
		RequiredVotes:       requiredVotes,
	}
}

func (s *Settings) VotingPeriod() time.Duration {
	return time.Duration(s.VotingPeriodSeconds) * time.Second
}

// CheckOwner is the capability check run first by every admin operation.
func (s *Settings) CheckOwner(caller string) error {
	if caller == "" || caller != s.Owner {
		return ErrNotOwner
	}
	return nil
}

// ValidLoanID reports whether id has been assigned.
func (s *Settings) ValidLoanID(id uint64) bool { return id >= 1 && id <= s.LoanCount }

func ValidateVotingPeriod(d time.Duration) error {
	if d < MinVotingPeriod {
		return ErrPeriodTooShort
	}
	return nil
}

func ValidateThreshold(t uint64) error {
	if t == 0 {
		return ErrInvalidThreshold
	}
	return nil
}
