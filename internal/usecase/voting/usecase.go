package voting

import (
	"context"
	"errors"
	"log/slog"

	"quorum-lending/internal/domain/event"
	"quorum-lending/internal/domain/loan"
	"quorum-lending/internal/domain/member"
	"quorum-lending/internal/domain/uow"
	"quorum-lending/pkg/clock"
	"quorum-lending/pkg/guard"
	"quorum-lending/pkg/logger"
)

type Usecase struct {
	uow   uow.UnitOfWork
	guard *guard.Guard
	clock clock.Clock
}

func NewUsecase(tx uow.UnitOfWork, g *guard.Guard, c clock.Clock) *Usecase {
	return &Usecase{uow: tx, guard: g, clock: c}
}

// CastVote adds the governor's current weight to one side of the tally.
//
// Approval is latched the first time the yes side reaches the threshold.
// Rejection only notifies: it fires on the no-vote that crosses the
// threshold, sets nothing and leaves the loan open to further votes.
func (u *Usecase) CastVote(ctx context.Context, in CastVoteInput) (*VoteDTO, error) {
	ctx, release, err := u.guard.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	now := u.clock.Now()
	var (
		dto                *VoteDTO
		approved, rejected bool
	)
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		m, err := r.Members.Get(ctx, in.Voter)
		if err != nil {
			if errors.Is(err, member.ErrNotAMember) {
				return member.ErrNotAGovernor
			}
			return err
		}

		s, err := r.Settings.Get(ctx)
		if err != nil {
			return err
		}
		if !s.ValidLoanID(in.LoanID) {
			return loan.ErrInvalidLoanID
		}
		l, err := r.Loans.GetByIDForUpdate(ctx, in.LoanID)
		if err != nil {
			return err
		}
		if !l.VotingOpen(now) {
			return loan.ErrVotingClosed
		}
		voted, err := r.Votes.Exists(ctx, l.ID, in.Voter)
		if err != nil {
			return err
		}
		if voted {
			return loan.ErrAlreadyVoted
		}
		if l.Approved || l.Funded {
			return loan.ErrAlreadyResolved
		}

		if err := r.Votes.Create(ctx, &loan.Vote{LoanID: l.ID, Voter: in.Voter}); err != nil {
			return err
		}
		if in.Support {
			if l.YesWeight, err = loan.AddWeight(l.YesWeight, m.VotingWeight); err != nil {
				return err
			}
			if !l.Approved && l.YesWeight >= s.RequiredVotes {
				l.Approved = true
				approved = true
			}
		} else {
			prev := l.NoWeight
			if l.NoWeight, err = loan.AddWeight(l.NoWeight, m.VotingWeight); err != nil {
				return err
			}
			rejected = prev < s.RequiredVotes && l.NoWeight >= s.RequiredVotes
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		if err := event.Record(ctx, r.Events, event.TypeVoteCast, l.ID, in.Voter,
			voteData{Support: in.Support, Weight: m.VotingWeight}, now); err != nil {
			return err
		}
		tally := tallyData{YesWeight: l.YesWeight, NoWeight: l.NoWeight, RequiredVotes: s.RequiredVotes}
		if approved {
			if err := event.Record(ctx, r.Events, event.TypeLoanApproved, l.ID, l.Borrower, tally, now); err != nil {
				return err
			}
		}
		if rejected {
			if err := event.Record(ctx, r.Events, event.TypeLoanRejected, l.ID, l.Borrower, tally, now); err != nil {
				return err
			}
		}

		dto = &VoteDTO{
			LoanID:    l.ID,
			Voter:     in.Voter,
			Support:   in.Support,
			Weight:    m.VotingWeight,
			YesWeight: l.YesWeight,
			NoWeight:  l.NoWeight,
			Approved:  l.Approved,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "vote cast",
		slog.Uint64("loan_id", in.LoanID),
		slog.String("voter", in.Voter),
		slog.Bool("support", in.Support),
		slog.Bool("approved", approved),
		slog.Bool("rejected", rejected),
	)
	return dto, nil
}
