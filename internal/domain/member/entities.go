package member

import (
	"errors"
	"math"
	"time"
)

// MaxVotingWeight keeps a single weight storable in a signed 64-bit column.
const MaxVotingWeight = math.MaxInt64

var (
	ErrDuplicateMember = errors.New("duplicate member")
	ErrInvalidWeight   = errors.New("invalid voting weight")
	ErrNotAMember      = errors.New("not a member")
	ErrNotAGovernor    = errors.New("not a governor")
)

// Member is a governor. Removal erases the row; there is no soft delete.
type Member struct {
	Principal    string    `gorm:"column:principal;primaryKey;size:32" json:"principal"`
	VotingWeight uint64    `gorm:"column:voting_weight;not null" json:"voting_weight"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Member) TableName() string { return "members" }
