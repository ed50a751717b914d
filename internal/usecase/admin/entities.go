package admin

import (
	"time"

	"quorum-lending/internal/domain/platform"
)

type BootstrapInput struct {
	Owner         string
	VotingPeriod  time.Duration
	RequiredVotes uint64
}

type EmergencyWithdrawInput struct {
	Asset       string `json:"asset"`
	Amount      uint64 `json:"amount"`
	Destination string `json:"destination"`
}

type MemberDTO struct {
	Principal    string    `json:"principal"`
	VotingWeight uint64    `json:"voting_weight"`
	CreatedAt    time.Time `json:"created_at"`
}

type SettingsDTO struct {
	Owner               string `json:"owner"`
	VotingPeriodSeconds int64  `json:"voting_period_seconds"`
	RequiredVotes       uint64 `json:"required_votes"`
	LoanCount           uint64 `json:"loan_count"`
}

func toSettingsDTO(s *platform.Settings) SettingsDTO {
	return SettingsDTO{
		Owner:               s.Owner,
		VotingPeriodSeconds: s.VotingPeriodSeconds,
		RequiredVotes:       s.RequiredVotes,
		LoanCount:           s.LoanCount,
	}
}

type PoolDTO struct {
	Asset     string      `json:"asset"`
	Principal string      `json:"principal"`
	Balance   uint64      `json:"balance"`
	Settings  SettingsDTO `json:"settings"`
}

type WithdrawalDTO struct {
	Asset       string `json:"asset"`
	Amount      uint64 `json:"amount"`
	Destination string `json:"destination"`
}

// event payloads
type weightData struct {
	VotingWeight uint64 `json:"voting_weight"`
}

type periodData struct {
	Seconds int64 `json:"seconds"`
}

type thresholdData struct {
	Threshold uint64 `json:"threshold"`
}
