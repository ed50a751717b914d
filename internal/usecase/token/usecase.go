// Package token is the issuer surface of the custody ledger: balance reads
// for anyone and owner-only minting.
package token

import (
	"context"
	"log/slog"

	"quorum-lending/internal/domain/ledger"
	"quorum-lending/internal/domain/uow"
	"quorum-lending/pkg/guard"
	"quorum-lending/pkg/logger"
)

type BalanceDTO struct {
	Asset   string `json:"asset"`
	Holder  string `json:"holder"`
	Balance uint64 `json:"balance"`
}

type Usecase struct {
	uow   uow.UnitOfWork
	guard *guard.Guard
}

func NewUsecase(tx uow.UnitOfWork, g *guard.Guard) *Usecase {
	return &Usecase{uow: tx, guard: g}
}

func (u *Usecase) BalanceOf(ctx context.Context, holder string) (*BalanceDTO, error) {
	var dto *BalanceDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		b, err := r.Ledger.BalanceOf(ctx, holder)
		if err != nil {
			return err
		}
		dto = &BalanceDTO{Asset: r.Ledger.Asset(), Holder: holder, Balance: b}
		return nil
	})
	return dto, err
}

func (u *Usecase) Mint(ctx context.Context, caller, to string, amount uint64) (*BalanceDTO, error) {
	ctx, release, err := u.guard.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var dto *BalanceDTO
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		s, err := r.Settings.Get(ctx)
		if err != nil {
			return err
		}
		if err := s.CheckOwner(caller); err != nil {
			return err
		}
		if amount == 0 {
			return ledger.ErrInvalidAmount
		}
		if err := r.Ledger.Mint(ctx, to, amount); err != nil {
			return err
		}
		b, err := r.Ledger.BalanceOf(ctx, to)
		if err != nil {
			return err
		}
		dto = &BalanceDTO{Asset: r.Ledger.Asset(), Holder: to, Balance: b}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "tokens minted", slog.String("to", to), slog.Uint64("amount", amount))
	return dto, nil
}
