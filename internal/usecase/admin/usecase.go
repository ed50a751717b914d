package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"quorum-lending/internal/domain/event"
	"quorum-lending/internal/domain/ledger"
	"quorum-lending/internal/domain/loan"
	"quorum-lending/internal/domain/member"
	"quorum-lending/internal/domain/platform"
	"quorum-lending/internal/domain/uow"
	"quorum-lending/pkg/clock"
	"quorum-lending/pkg/guard"
	"quorum-lending/pkg/logger"
)

// Usecase holds the owner-only operations plus the governance reads. Every
// mutating call checks the owner capability before anything else.
type Usecase struct {
	uow   uow.UnitOfWork
	guard *guard.Guard
	clock clock.Clock
}

func NewUsecase(tx uow.UnitOfWork, g *guard.Guard, c clock.Clock) *Usecase {
	return &Usecase{uow: tx, guard: g, clock: c}
}

// Bootstrap seeds the settings row on first start. An existing row wins over
// in, so restarts with different config never rewrite governance state.
func (u *Usecase) Bootstrap(ctx context.Context, in BootstrapInput) (*SettingsDTO, error) {
	ctx, release, err := u.guard.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if in.Owner == "" {
		return nil, platform.ErrNotOwner
	}
	if err := platform.ValidateVotingPeriod(in.VotingPeriod); err != nil {
		return nil, err
	}
	if err := platform.ValidateThreshold(in.RequiredVotes); err != nil {
		return nil, err
	}

	var dto SettingsDTO
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		s, err := r.Settings.Init(ctx, platform.NewSettings(in.Owner, in.VotingPeriod, in.RequiredVotes))
		if err != nil {
			return err
		}
		dto = toSettingsDTO(s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if dto.Owner != in.Owner {
		logger.CtxWarn(ctx, "stored owner differs from configured owner", slog.String("owner", dto.Owner))
	}
	return &dto, nil
}

// withOwner runs fn in a transaction after the owner check.
func (u *Usecase) withOwner(ctx context.Context, caller string, fn func(r uow.Repos, s *platform.Settings) error) error {
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		s, err := r.Settings.GetForUpdate(ctx)
		if err != nil {
			return err
		}
		if err := s.CheckOwner(caller); err != nil {
			return err
		}
		return fn(r, s)
	})
}

func (u *Usecase) AddMember(ctx context.Context, caller, principal string, weight uint64) (*MemberDTO, error) {
	ctx, release, err := u.guard.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	now := u.clock.Now()
	var dto *MemberDTO
	err = u.withOwner(ctx, caller, func(r uow.Repos, _ *platform.Settings) error {
		_, err := r.Members.Get(ctx, principal)
		switch {
		case err == nil:
			return member.ErrDuplicateMember
		case !errors.Is(err, member.ErrNotAMember):
			return err
		}
		if weight == 0 || weight > member.MaxVotingWeight {
			return member.ErrInvalidWeight
		}

		m := &member.Member{Principal: principal, VotingWeight: weight}
		if err := r.Members.Create(ctx, m); err != nil {
			return err
		}
		if err := event.Record(ctx, r.Events, event.TypeMemberAdded, 0, principal, weightData{VotingWeight: weight}, now); err != nil {
			return err
		}
		dto = &MemberDTO{Principal: m.Principal, VotingWeight: m.VotingWeight, CreatedAt: m.CreatedAt}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "member added", slog.String("principal", principal), slog.Uint64("weight", weight))
	return dto, nil
}

// RemoveMember erases the governor. Votes already tallied stay counted.
func (u *Usecase) RemoveMember(ctx context.Context, caller, principal string) error {
	ctx, release, err := u.guard.Enter(ctx)
	if err != nil {
		return err
	}
	defer release()

	now := u.clock.Now()
	err = u.withOwner(ctx, caller, func(r uow.Repos, _ *platform.Settings) error {
		if err := r.Members.Delete(ctx, principal); err != nil {
			return err
		}
		return event.Record(ctx, r.Events, event.TypeMemberRemoved, 0, principal, nil, now)
	})
	if err != nil {
		return err
	}

	logger.CtxInfo(ctx, "member removed", slog.String("principal", principal))
	return nil
}

func (u *Usecase) GetMember(ctx context.Context, principal string) (*MemberDTO, error) {
	var dto *MemberDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		m, err := r.Members.Get(ctx, principal)
		if err != nil {
			return err
		}
		dto = &MemberDTO{Principal: m.Principal, VotingWeight: m.VotingWeight, CreatedAt: m.CreatedAt}
		return nil
	})
	return dto, err
}

func (u *Usecase) ListMembers(ctx context.Context) ([]MemberDTO, error) {
	out := []MemberDTO{}
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		ms, err := r.Members.List(ctx)
		if err != nil {
			return err
		}
		for _, m := range ms {
			out = append(out, MemberDTO{Principal: m.Principal, VotingWeight: m.VotingWeight, CreatedAt: m.CreatedAt})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetVotingPeriod applies to loans requested afterwards; open deadlines keep
// the period they were opened with.
func (u *Usecase) SetVotingPeriod(ctx context.Context, caller string, d time.Duration) (*SettingsDTO, error) {
	ctx, release, err := u.guard.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	now := u.clock.Now()
	var dto SettingsDTO
	err = u.withOwner(ctx, caller, func(r uow.Repos, s *platform.Settings) error {
		if err := platform.ValidateVotingPeriod(d); err != nil {
			return err
		}
		s.VotingPeriodSeconds = int64(d / time.Second)
		if err := r.Settings.Save(ctx, s); err != nil {
			return err
		}
		if err := event.Record(ctx, r.Events, event.TypeVotingPeriodUpdated, 0, caller, periodData{Seconds: s.VotingPeriodSeconds}, now); err != nil {
			return err
		}
		dto = toSettingsDTO(s)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "voting period updated", slog.Int64("seconds", dto.VotingPeriodSeconds))
	return &dto, nil
}

// SetRequiredVotes changes the approval threshold for every later vote,
// including votes on loans already open.
func (u *Usecase) SetRequiredVotes(ctx context.Context, caller string, threshold uint64) (*SettingsDTO, error) {
	ctx, release, err := u.guard.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	now := u.clock.Now()
	var dto SettingsDTO
	err = u.withOwner(ctx, caller, func(r uow.Repos, s *platform.Settings) error {
		if err := platform.ValidateThreshold(threshold); err != nil {
			return err
		}
		s.RequiredVotes = threshold
		if err := r.Settings.Save(ctx, s); err != nil {
			return err
		}
		if err := event.Record(ctx, r.Events, event.TypeThresholdUpdated, 0, caller, thresholdData{Threshold: threshold}, now); err != nil {
			return err
		}
		dto = toSettingsDTO(s)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "required votes updated", slog.Uint64("threshold", threshold))
	return &dto, nil
}

// EmergencyWithdraw lets the owner move any amount of the pool asset out of
// custody with no other check. It is a single point of unilateral trust.
func (u *Usecase) EmergencyWithdraw(ctx context.Context, caller string, in EmergencyWithdrawInput) (*WithdrawalDTO, error) {
	ctx, release, err := u.guard.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	now := u.clock.Now()
	err = u.withOwner(ctx, caller, func(r uow.Repos, _ *platform.Settings) error {
		if in.Asset != r.Ledger.Asset() {
			return platform.ErrUnknownAsset
		}
		if in.Amount == 0 {
			return ledger.ErrInvalidAmount
		}
		ok, err := r.Ledger.Transfer(ctx, in.Destination, in.Amount)
		if err != nil {
			return fmt.Errorf("%w: %w", loan.ErrTransferFailed, err)
		}
		if !ok {
			return loan.ErrTransferFailed
		}
		return event.Record(ctx, r.Events, event.TypeEmergencyWithdrawal, 0, in.Destination, in, now)
	})
	if err != nil {
		return nil, err
	}

	logger.CtxWarn(ctx, "emergency withdrawal",
		slog.String("asset", in.Asset),
		slog.Uint64("amount", in.Amount),
		slog.String("destination", in.Destination),
	)
	return &WithdrawalDTO{Asset: in.Asset, Amount: in.Amount, Destination: in.Destination}, nil
}

func (u *Usecase) Pool(ctx context.Context) (*PoolDTO, error) {
	var dto *PoolDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		s, err := r.Settings.Get(ctx)
		if err != nil {
			return err
		}
		bal, err := r.Ledger.BalanceOf(ctx, r.Ledger.Pool())
		if err != nil {
			return err
		}
		dto = &PoolDTO{
			Asset:     r.Ledger.Asset(),
			Principal: r.Ledger.Pool(),
			Balance:   bal,
			Settings:  toSettingsDTO(s),
		}
		return nil
	})
	return dto, err
}
