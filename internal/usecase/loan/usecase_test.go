package loan

import (
	"context"
	"errors"
	"testing"
	"time"

	"quorum-lending/internal/domain/event"
	domain "quorum-lending/internal/domain/loan"
	"quorum-lending/internal/domain/platform"
	"quorum-lending/internal/domain/uow"
	"quorum-lending/internal/testutil/ledgermock"
	"quorum-lending/internal/testutil/loanmock"
	"quorum-lending/internal/testutil/platformtest"
	"quorum-lending/internal/testutil/uowmock"
	"quorum-lending/pkg/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	borrower = platformtest.Borrower
	stranger = platformtest.Stranger
)

func newUsecase(t *testing.T, pool uint64) (*Usecase, *platformtest.Fixture) {
	t.Helper()
	f := platformtest.New(t, 3, pool)
	return NewUsecase(f.UoW, f.Guard, f.Clock), f
}

// putApproved stores an approved loan whose voting closed an hour ago.
func putApproved(t *testing.T, f *platformtest.Fixture, amount uint64) uint64 {
	t.Helper()
	l := &domain.Loan{
		Borrower:       borrower,
		Amount:         amount,
		CreditScore:    80,
		VotingDeadline: f.Clock.Now().Add(-time.Hour),
		YesWeight:      3,
		Approved:       true,
	}
	f.PutLoan(t, l)
	return l.ID
}

func TestRequest_Success(t *testing.T) {
	uc, f := newUsecase(t, 150)
	ctx := context.Background()

	dto, err := uc.Request(ctx, RequestLoanInput{Borrower: borrower, Amount: 100, CreditScore: 75})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), dto.LoanID)
	assert.Equal(t, platformtest.Start.Add(platform.DefaultVotingPeriod), dto.VotingDeadline)
	assert.Equal(t, string(domain.StatusVoting), dto.Status)
	assert.Equal(t, uint64(1), f.Settings(t).LoanCount)

	second, err := uc.Request(ctx, RequestLoanInput{Borrower: borrower, Amount: 10, CreditScore: 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.LoanID)

	list, err := uc.ListByBorrower(ctx, borrower)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, list.LoanIDs)

	evs := f.EventsOf(t, event.TypeLoanRequested)
	require.Len(t, evs, 2)
	assert.Equal(t, uint64(1), evs[0].LoanID)
	assert.Equal(t, borrower, evs[0].Principal)

	// the pool is not reserved by requests
	assert.Equal(t, uint64(150), f.Balance(t, platformtest.Pool))
}

func TestRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		amount  uint64
		score   int
		wantErr error
	}{
		{"zero amount", 0, 50, domain.ErrInvalidAmount},
		{"score zero", 100, 0, domain.ErrInvalidCreditScore},
		{"score negative", 100, -5, domain.ErrInvalidCreditScore},
		{"score above max", 100, 101, domain.ErrInvalidCreditScore},
		{"amount above pool", 151, 50, domain.ErrInsufficientPoolFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, f := newUsecase(t, 150)

			_, err := uc.Request(context.Background(), RequestLoanInput{Borrower: borrower, Amount: tt.amount, CreditScore: tt.score})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got := f.Settings(t).LoanCount; got != 0 {
				t.Fatalf("loan count = %d, want 0", got)
			}
			if evs := f.EventsOf(t, ""); len(evs) != 0 {
				t.Fatalf("events recorded on failure: %d", len(evs))
			}
		})
	}
}

func TestRequest_BoundaryScoreAndExactPool(t *testing.T) {
	uc, _ := newUsecase(t, 150)

	dto, err := uc.Request(context.Background(), RequestLoanInput{Borrower: borrower, Amount: 150, CreditScore: 100})
	require.NoError(t, err)
	assert.Equal(t, uint8(100), dto.CreditScore)
}

func TestRequest_UsesCurrentVotingPeriod(t *testing.T) {
	uc, f := newUsecase(t, 150)
	s := f.Settings(t)
	s.VotingPeriodSeconds = int64((48 * time.Hour).Seconds())
	require.NoError(t, f.DB.Save(s).Error)

	dto, err := uc.Request(context.Background(), RequestLoanInput{Borrower: borrower, Amount: 1, CreditScore: 1})
	require.NoError(t, err)
	assert.Equal(t, platformtest.Start.Add(48*time.Hour), dto.VotingDeadline)
}

func TestGet_And_HasVoted_InvalidIDs(t *testing.T) {
	uc, f := newUsecase(t, 150)
	ctx := context.Background()
	id := putApproved(t, f, 100)

	got, err := uc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, borrower, got.Borrower)
	assert.Equal(t, string(domain.StatusApproved), got.Status)

	for _, bad := range []uint64{0, id + 1} {
		_, err := uc.Get(ctx, bad)
		assert.ErrorIs(t, err, domain.ErrInvalidLoanID, "Get(%d)", bad)
		_, err = uc.HasVoted(ctx, bad, platformtest.Gov1)
		assert.ErrorIs(t, err, domain.ErrInvalidLoanID, "HasVoted(%d)", bad)
	}

	hv, err := uc.HasVoted(ctx, id, platformtest.Gov1)
	require.NoError(t, err)
	assert.False(t, hv.HasVoted)
}

func TestListByBorrower_Unknown(t *testing.T) {
	uc, _ := newUsecase(t, 0)

	out, err := uc.ListByBorrower(context.Background(), stranger)
	require.NoError(t, err)
	assert.NotNil(t, out.LoanIDs)
	assert.Empty(t, out.LoanIDs)
}

func TestFund_Success(t *testing.T) {
	uc, f := newUsecase(t, 150)
	id := putApproved(t, f, 100)

	dto, err := uc.Fund(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, dto.Funded)
	assert.Equal(t, string(domain.StatusFunded), dto.Status)
	assert.Equal(t, uint64(50), f.Balance(t, platformtest.Pool))
	assert.Equal(t, uint64(100), f.Balance(t, borrower))
	assert.Len(t, f.EventsOf(t, event.TypeLoanFunded), 1)

	_, err = uc.Fund(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrNotApproved, "second funding")
}

func TestFund_Preconditions(t *testing.T) {
	uc, f := newUsecase(t, 150)
	ctx := context.Background()

	_, err := uc.Fund(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidLoanID)

	// not approved
	f.PutLoan(t, &domain.Loan{Borrower: borrower, Amount: 10, CreditScore: 5, VotingDeadline: f.Clock.Now().Add(-time.Hour)})
	_, err = uc.Fund(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNotApproved)

	// approved above threshold but still inside the voting window
	f.PutLoan(t, &domain.Loan{Borrower: borrower, Amount: 10, CreditScore: 5, VotingDeadline: f.Clock.Now().Add(time.Hour), YesWeight: 9, Approved: true})
	_, err = uc.Fund(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrVotingStillOpen)

	f.Clock.Advance(time.Hour)
	_, err = uc.Fund(ctx, 2)
	assert.NoError(t, err, "deadline reached")
}

func TestFund_TransferFailureRollsBack(t *testing.T) {
	uc, f := newUsecase(t, 50)
	id := putApproved(t, f, 100)

	_, err := uc.Fund(context.Background(), id)
	require.ErrorIs(t, err, domain.ErrTransferFailed)

	l := f.Loan(t, id)
	assert.False(t, l.Funded, "funded flag must roll back")
	assert.Equal(t, uint64(50), f.Balance(t, platformtest.Pool))
	assert.Empty(t, f.EventsOf(t, event.TypeLoanFunded))
}

func TestFund_LedgerRefusesWithoutError(t *testing.T) {
	f := platformtest.New(t, 3, 150)
	id := putApproved(t, f, 100)
	refusing := uowmock.Wrap(f.UoW, func(r uow.Repos) uow.Repos {
		r.Ledger = &ledgermock.Ledger{
			Base:       r.Ledger,
			TransferFn: func(context.Context, string, uint64) (bool, error) { return false, nil },
		}
		return r
	})
	uc := NewUsecase(refusing, f.Guard, f.Clock)

	_, err := uc.Fund(context.Background(), id)
	require.ErrorIs(t, err, domain.ErrTransferFailed)
	assert.False(t, f.Loan(t, id).Funded)
	assert.Empty(t, f.EventsOf(t, ""))
}

func TestFund_ReentryFromLedgerIsRejected(t *testing.T) {
	f := platformtest.New(t, 3, 150)
	id := putApproved(t, f, 100)

	var uc *Usecase
	var innerErr error
	reentrant := uowmock.Wrap(f.UoW, func(r uow.Repos) uow.Repos {
		r.Ledger = &ledgermock.Ledger{
			Base: r.Ledger,
			TransferFn: func(ctx context.Context, _ string, _ uint64) (bool, error) {
				_, innerErr = uc.Repay(ctx, id, borrower)
				return false, innerErr
			},
		}
		return r
	})
	uc = NewUsecase(reentrant, f.Guard, f.Clock)

	_, err := uc.Fund(context.Background(), id)
	require.ErrorIs(t, innerErr, guard.ErrReentrantCall)
	assert.ErrorIs(t, err, guard.ErrReentrantCall)
	assert.ErrorIs(t, err, domain.ErrTransferFailed)
	assert.False(t, f.Loan(t, id).Funded)
	assert.False(t, f.Guard.Held(), "guard must be released")

	// the platform is usable again afterwards
	_, err = NewUsecase(f.UoW, f.Guard, f.Clock).Fund(context.Background(), id)
	assert.NoError(t, err)
}

func TestFund_SaveErrorPropagates(t *testing.T) {
	f := platformtest.New(t, 3, 150)
	id := putApproved(t, f, 100)
	boom := errors.New("disk full")
	failing := uowmock.Wrap(f.UoW, func(r uow.Repos) uow.Repos {
		r.Loans = &loanmock.Repo{SaveFn: func(context.Context, *domain.Loan) error { return boom }}
		return r
	})

	_, err := NewUsecase(failing, f.Guard, f.Clock).Fund(context.Background(), id)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(150), f.Balance(t, platformtest.Pool))
}

func TestRepay(t *testing.T) {
	uc, f := newUsecase(t, 150)
	ctx := context.Background()
	id := putApproved(t, f, 100)

	_, err := uc.Repay(ctx, id, borrower)
	assert.ErrorIs(t, err, domain.ErrNotFundedOrAlreadyRepaid, "not funded yet")

	_, err = uc.Fund(ctx, id)
	require.NoError(t, err)

	_, err = uc.Repay(ctx, id, stranger)
	assert.ErrorIs(t, err, domain.ErrNotBorrower)

	dto, err := uc.Repay(ctx, id, borrower)
	require.NoError(t, err)
	assert.True(t, dto.Repaid)
	assert.Equal(t, string(domain.StatusRepaid), dto.Status)
	assert.Equal(t, uint64(150), f.Balance(t, platformtest.Pool))
	assert.Equal(t, uint64(0), f.Balance(t, borrower))
	assert.Len(t, f.EventsOf(t, event.TypeLoanRepaid), 1)

	_, err = uc.Repay(ctx, id, borrower)
	assert.ErrorIs(t, err, domain.ErrNotFundedOrAlreadyRepaid, "second repay")
	_, err = uc.Repay(ctx, id, stranger)
	assert.ErrorIs(t, err, domain.ErrNotFundedOrAlreadyRepaid, "state is checked before the caller")
}

func TestRepay_BorrowerShortRollsBack(t *testing.T) {
	uc, f := newUsecase(t, 150)
	ctx := context.Background()
	id := putApproved(t, f, 100)
	_, err := uc.Fund(ctx, id)
	require.NoError(t, err)

	// borrower spends part of the loan elsewhere
	ok, err := f.Ledger.TransferFrom(ctx, borrower, stranger, 30)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = uc.Repay(ctx, id, borrower)
	require.ErrorIs(t, err, domain.ErrTransferFailed)
	assert.False(t, f.Loan(t, id).Repaid)
	assert.Equal(t, uint64(70), f.Balance(t, borrower))
	assert.Empty(t, f.EventsOf(t, event.TypeLoanRepaid))
}

func TestGuard_BlocksReentrantRequest(t *testing.T) {
	uc, f := newUsecase(t, 150)
	ctx, release, err := f.Guard.Enter(context.Background())
	require.NoError(t, err)
	defer release()

	_, err = uc.Request(ctx, RequestLoanInput{Borrower: borrower, Amount: 1, CreditScore: 1})
	assert.ErrorIs(t, err, guard.ErrReentrantCall)
	assert.Equal(t, uint64(0), f.Settings(t).LoanCount)
}
