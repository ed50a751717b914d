package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	at := time.Date(2025, 9, 6, 17, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	e, err := New(TypeLoanApproved, 3, "", map[string]uint64{"yes_weight": 4}, at)
	require.NoError(t, err)

	assert.Len(t, e.ID, 36)
	assert.Equal(t, TypeLoanApproved, e.Type)
	assert.Equal(t, uint64(3), e.LoanID)
	assert.Equal(t, StatusPending, e.Status)
	assert.Equal(t, time.UTC, e.OccurredAt.Location())
	assert.True(t, e.OccurredAt.Equal(at))
	assert.JSONEq(t, `{"yes_weight":4}`, e.Payload)
}

func TestEnvelope_NilDataOmitted(t *testing.T) {
	e, err := New(TypeMemberRemoved, 0, "p", nil, time.Now())
	require.NoError(t, err)
	assert.Empty(t, e.Payload)

	b, err := json.Marshal(e.Envelope())
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"data"`)
	assert.NotContains(t, string(b), `"loan_id"`)
}

func TestNew_UnencodableData(t *testing.T) {
	_, err := New(TypeVoteCast, 1, "p", map[string]any{"bad": make(chan int)}, time.Now())
	assert.Error(t, err)
}

func TestEnvelope_CarriesData(t *testing.T) {
	e, err := New(TypeVoteCast, 9, "gov", map[string]any{"support": true, "weight": 2}, time.Now())
	require.NoError(t, err)

	b, err := json.Marshal(e.Envelope())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "vote_cast", got["event_type"])
	assert.Equal(t, float64(9), got["loan_id"])
	assert.Equal(t, "gov", got["principal"])
	assert.Equal(t, map[string]any{"support": true, "weight": float64(2)}, got["data"])
}
