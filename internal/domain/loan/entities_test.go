package loan

import (
	"errors"
	"testing"
	"time"
)

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name   string
		amount uint64
		score  int
		want   error
	}{
		{"ok lower bound", 1, 1, nil},
		{"ok upper bound", 100, 100, nil},
		{"zero amount", 0, 50, ErrInvalidAmount},
		{"zero amount wins over bad score", 0, 0, ErrInvalidAmount},
		{"score zero", 10, 0, ErrInvalidCreditScore},
		{"score negative", 10, -5, ErrInvalidCreditScore},
		{"score 101", 10, 101, ErrInvalidCreditScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateRequest(tt.amount, tt.score); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		l    Loan
		want Status
	}{
		{Loan{}, StatusVoting},
		{Loan{Approved: true}, StatusApproved},
		{Loan{Approved: true, Funded: true}, StatusFunded},
		{Loan{Approved: true, Funded: true, Repaid: true}, StatusRepaid},
	}
	for _, tt := range tests {
		if got := tt.l.Status(); got != tt.want {
			t.Fatalf("Status(%+v) = %s, want %s", tt.l, got, tt.want)
		}
	}
}

func TestVotingOpen(t *testing.T) {
	deadline := time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)
	l := Loan{VotingDeadline: deadline}

	if !l.VotingOpen(deadline.Add(-time.Nanosecond)) {
		t.Fatal("voting should be open just before the deadline")
	}
	if l.VotingOpen(deadline) {
		t.Fatal("voting must be closed at the deadline")
	}
	if l.VotingOpen(deadline.Add(time.Hour)) {
		t.Fatal("voting must be closed after the deadline")
	}
}

func TestAddWeight(t *testing.T) {
	tests := []struct {
		name          string
		tally, weight uint64
		want          uint64
		err           error
	}{
		{"plain", 2, 2, 4, nil},
		{"up to the cap", MaxTally - 1, 1, MaxTally, nil},
		{"past the cap", MaxTally, 1, MaxTally, ErrTallyOverflow},
		{"weight alone past the cap", 0, MaxTally + 1, 0, ErrTallyOverflow},
		{"would wrap uint64", 1 << 63, 1 << 63, 1 << 63, ErrTallyOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AddWeight(tt.tally, tt.weight)
			if !errors.Is(err, tt.err) || got != tt.want {
				t.Fatalf("AddWeight(%d, %d) = %d, %v; want %d, %v", tt.tally, tt.weight, got, err, tt.want, tt.err)
			}
		})
	}
}
