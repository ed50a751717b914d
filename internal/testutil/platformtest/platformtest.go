// Package platformtest wires a complete platform over in-memory sqlite for
// use-case scenario tests.
package platformtest

import (
	"context"
	"testing"
	"time"

	mysqlrepo "quorum-lending/internal/adapter/repository/mysql"
	"quorum-lending/internal/domain/event"
	"quorum-lending/internal/domain/loan"
	"quorum-lending/internal/domain/member"
	"quorum-lending/internal/domain/platform"
	"quorum-lending/internal/testutil/sqlitetest"
	"quorum-lending/pkg/clock"
	"quorum-lending/pkg/guard"

	"gorm.io/gorm"
)

const (
	Asset    = "QLT"
	Owner    = "0000000000000000000000000000000a"
	Pool     = "00000000000000000000000000000001"
	Borrower = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	Gov1     = "11111111111111111111111111111111"
	Gov2     = "22222222222222222222222222222222"
	Gov3     = "33333333333333333333333333333333"
	Stranger = "ffffffffffffffffffffffffffffffff"
)

// Start is the fixed time every fixture clock begins at.
var Start = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

type Fixture struct {
	DB     *gorm.DB
	UoW    *mysqlrepo.GormUoW
	Ledger *mysqlrepo.LedgerRepository
	Events *mysqlrepo.EventRepository
	Loans  *mysqlrepo.LoanRepository
	Guard  *guard.Guard
	Clock  *clock.Manual
}

// New seeds settings (default period, the given threshold) and mints pool
// tokens to the pool when pool > 0.
func New(t *testing.T, requiredVotes, pool uint64) *Fixture {
	t.Helper()
	db := sqlitetest.Open(t)
	f := &Fixture{
		DB:     db,
		UoW:    mysqlrepo.NewGormUoW(db, Asset, Pool),
		Ledger: mysqlrepo.NewLedgerRepository(db, Asset, Pool),
		Events: mysqlrepo.NewEventRepository(db),
		Loans:  mysqlrepo.NewLoanRepository(db),
		Guard:  guard.New(),
		Clock:  clock.NewManual(Start),
	}
	ctx := context.Background()
	if _, err := mysqlrepo.NewSettingsRepository(db).Init(ctx, platform.NewSettings(Owner, platform.DefaultVotingPeriod, requiredVotes)); err != nil {
		t.Fatalf("init settings: %v", err)
	}
	if pool > 0 {
		if err := f.Ledger.Mint(ctx, Pool, pool); err != nil {
			t.Fatalf("mint pool: %v", err)
		}
	}
	return f
}

func (f *Fixture) AddMember(t *testing.T, principal string, weight uint64) {
	t.Helper()
	if err := mysqlrepo.NewMemberRepository(f.DB).Create(context.Background(), &member.Member{Principal: principal, VotingWeight: weight}); err != nil {
		t.Fatalf("add member %s: %v", principal, err)
	}
}

func (f *Fixture) Settings(t *testing.T) *platform.Settings {
	t.Helper()
	s, err := mysqlrepo.NewSettingsRepository(f.DB).Get(context.Background())
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	return s
}

func (f *Fixture) Loan(t *testing.T, id uint64) *loan.Loan {
	t.Helper()
	l, err := f.Loans.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("loan %d: %v", id, err)
	}
	return l
}

// PutLoan stores l as if it had been requested, bumping the loan counter.
func (f *Fixture) PutLoan(t *testing.T, l *loan.Loan) {
	t.Helper()
	s := f.Settings(t)
	s.LoanCount++
	l.ID = s.LoanCount
	if err := mysqlrepo.NewSettingsRepository(f.DB).Save(context.Background(), s); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if err := f.Loans.Create(context.Background(), l); err != nil {
		t.Fatalf("create loan: %v", err)
	}
}

func (f *Fixture) Balance(t *testing.T, holder string) uint64 {
	t.Helper()
	b, err := f.Ledger.BalanceOf(context.Background(), holder)
	if err != nil {
		t.Fatalf("balance %s: %v", holder, err)
	}
	return b
}

// EventsOf lists recorded events of type typ; an empty typ lists all.
func (f *Fixture) EventsOf(t *testing.T, typ event.Type) []event.Event {
	t.Helper()
	evs, err := f.Events.List(context.Background(), event.Filter{Type: typ})
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	return evs
}
