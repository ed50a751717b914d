package voting

type CastVoteInput struct {
	LoanID  uint64
	Voter   string
	Support bool
}

type VoteDTO struct {
	LoanID    uint64 `json:"loan_id"`
	Voter     string `json:"voter"`
	Support   bool   `json:"support"`
	Weight    uint64 `json:"weight"`
	YesWeight uint64 `json:"yes_weight"`
	NoWeight  uint64 `json:"no_weight"`
	Approved  bool   `json:"approved"`
}

type voteData struct {
	Support bool   `json:"support"`
	Weight  uint64 `json:"weight"`
}

type tallyData struct {
	YesWeight     uint64 `json:"yes_weight"`
	NoWeight      uint64 `json:"no_weight"`
	RequiredVotes uint64 `json:"required_votes"`
}
