package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeLoanRequested       Type = "loan_requested"
	TypeVoteCast            Type = "vote_cast"
	TypeLoanApproved        Type = "loan_approved"
	TypeLoanRejected        Type = "loan_rejected"
	TypeLoanFunded          Type = "loan_funded"
	TypeLoanRepaid          Type = "loan_repaid"
	TypeMemberAdded         Type = "member_added"
	TypeMemberRemoved       Type = "member_removed"
	TypeVotingPeriodUpdated Type = "voting_period_updated"
	TypeThresholdUpdated    Type = "threshold_updated"
	TypeEmergencyWithdrawal Type = "emergency_withdrawal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
)

// Event is a notification queued in the outbox inside the transaction that
// caused it, so a rolled back operation never notifies.
type Event struct {
	Seq         uint64     `gorm:"column:seq;primaryKey;autoIncrement"`
	ID          string     `gorm:"column:event_id;size:36;not null;uniqueIndex"`
	Type        Type       `gorm:"column:event_type;size:64;not null;index"`
	LoanID      uint64     `gorm:"column:loan_id;index"`
	Principal   string     `gorm:"column:principal;size:32"`
	Payload     string     `gorm:"column:payload;type:text"`
	Status      Status     `gorm:"column:status;size:16;not null;index"`
	OccurredAt  time.Time  `gorm:"column:occurred_at;not null;index"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (Event) TableName() string { return "outbox_events" }

// New builds a pending event; data is encoded as the payload when non-nil.
func New(t Type, loanID uint64, principal string, data any, at time.Time) (*Event, error) {
	e := &Event{
		ID:         uuid.NewString(),
		Type:       t,
		LoanID:     loanID,
		Principal:  principal,
		Status:     StatusPending,
		OccurredAt: at.UTC(),
	}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		e.Payload = string(b)
	}
	return e, nil
}

// Envelope is the wire form handed to subscribers.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  Type            `json:"event_type"`
	LoanID     uint64          `json:"loan_id,omitempty"`
	Principal  string          `json:"principal,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func (e *Event) Envelope() Envelope {
	env := Envelope{
		EventID:    e.ID,
		EventType:  e.Type,
		LoanID:     e.LoanID,
		Principal:  e.Principal,
		OccurredAt: e.OccurredAt,
	}
	if e.Payload != "" {
		env.Data = json.RawMessage(e.Payload)
	}
	return env
}

type Filter struct {
	LoanID uint64
	Type   Type
}
