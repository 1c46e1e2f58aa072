package dashboard

import (
	"context"
	"time"

	"github.com/koperta/koperta/internal/money"
	"github.com/koperta/koperta/internal/utils"
	"github.com/koperta/koperta/pkg/envelope"
	"github.com/koperta/koperta/pkg/recurring"
)

type Ledger interface {
	MainBalance(ctx context.Context, asOf time.Time) (money.Cents, error)
}

type Envelopes interface {
	MonthlySnapshots(ctx context.Context, month utils.MonthKey) ([]envelope.MonthlySnapshot, error)
	YearlySnapshots(ctx context.Context, asOf time.Time) ([]envelope.YearlySnapshot, error)
}

type Closures interface {
	IsClosed(ctx context.Context, month utils.MonthKey) (bool, error)
}

type Scheduler interface {
	DueRules(ctx context.Context, asOf time.Time) ([]recurring.Rule, error)
}

// Overview is the read-only state of the current month.
type Overview struct {
	Month         utils.MonthKey
	MainBalance   money.Cents
	Monthly       []envelope.MonthlySnapshot
	Yearly        []envelope.YearlySnapshot
	DaysRemaining int
	// DailyBudget spreads the remaining monthly envelope headroom over the
	// days left in the month.
	DailyBudget    money.Cents
	PendingActions int
	MonthClosed    bool
}

type Service interface {
	Overview(ctx context.Context) (Overview, error)
}

type ServiceImpl struct {
	ledger    Ledger
	envelopes Envelopes
	closures  Closures
	scheduler Scheduler
	clock     utils.Clock
}

func NewService(ledger Ledger, envelopes Envelopes, closures Closures, scheduler Scheduler, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{ledger: ledger, envelopes: envelopes, closures: closures, scheduler: scheduler, clock: clock}
}

func (s *ServiceImpl) Overview(ctx context.Context) (Overview, error) {
	now := s.clock.Now()
	month := utils.MonthKeyOf(now)

	mainBalance, err := s.ledger.MainBalance(ctx, now)
	if err != nil {
		return Overview{}, err
	}
	monthly, err := s.envelopes.MonthlySnapshots(ctx, month)
	if err != nil {
		return Overview{}, err
	}
	yearly, err := s.envelopes.YearlySnapshots(ctx, now)
	if err != nil {
		return Overview{}, err
	}
	due, err := s.scheduler.DueRules(ctx, now)
	if err != nil {
		return Overview{}, err
	}
	closed, err := s.closures.IsClosed(ctx, month)
	if err != nil {
		return Overview{}, err
	}

	daysRemaining := utils.DaysRemaining(now)
	var headroom money.Cents
	for _, snapshot := range monthly {
		if snapshot.Balance > 0 {
			headroom += snapshot.Balance
		}
	}

	return Overview{
		Month:          month,
		MainBalance:    mainBalance,
		Monthly:        monthly,
		Yearly:         yearly,
		DaysRemaining:  daysRemaining,
		DailyBudget:    headroom / money.Cents(daysRemaining),
		PendingActions: len(due),
		MonthClosed:    closed,
	}, nil
}
