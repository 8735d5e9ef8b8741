package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/eliasfjaere/utlaan-backend/pkg/auth"
	"github.com/eliasfjaere/utlaan-backend/pkg/dates"
	pkgerrors "github.com/eliasfjaere/utlaan-backend/pkg/errors"
)

const (
	lowStockThreshold = 2
	topRankLimit      = 5
)

// Service derives the dashboard and statistics views. Pure reads; every
// count on a page is evaluated against the same "today" snapshot.
type Service interface {
	Dashboard(ctx context.Context, actor auth.Actor) (*Dashboard, error)
	Statistics(ctx context.Context, actor auth.Actor) (*Statistics, error)
}

type service struct {
	repo Repository
	loc  *time.Location
	now  func() time.Time
}

// NewService builds a reports service with the required dependencies.
func NewService(repo Repository, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{repo: repo, loc: loc, now: time.Now}, nil
}

func (s *service) Dashboard(ctx context.Context, actor auth.Actor) (*Dashboard, error) {
	if !actor.Known() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	today := dates.Today(s.loc, s.now())
	tomorrow := today.AddDate(0, 0, 1)

	active, err := s.repo.CountActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active loans")
	}
	overdue, err := s.repo.CountOverdue(ctx, today)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count overdue loans")
	}
	returnedToday, err := s.repo.CountReturnedBetween(ctx, today, tomorrow)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count returns today")
	}
	returned, err := s.repo.CountReturned(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count returned loans")
	}
	lowStock, err := s.repo.LowStock(ctx, lowStockThreshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load low stock")
	}

	return &Dashboard{
		ActiveCount:        active,
		OverdueCount:       overdue,
		ReturnedTodayCount: returnedToday,
		TotalReturnedCount: returned,
		LowStock:           lowStock,
	}, nil
}

func (s *service) Statistics(ctx context.Context, actor auth.Actor) (*Statistics, error) {
	if !actor.Known() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	total, err := s.repo.CountLoans(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count loans")
	}
	active, err := s.repo.CountActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active loans")
	}
	returned, err := s.repo.CountReturned(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count returned loans")
	}
	borrowers, err := s.repo.CountDistinctBorrowers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count distinct borrowers")
	}
	items, err := s.repo.CountDistinctItems(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count distinct items")
	}
	topItems, err := s.repo.TopItems(ctx, topRankLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rank items")
	}
	topClasses, err := s.repo.TopClasses(ctx, topRankLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rank classes")
	}
	trend, err := s.repo.MonthlyTrend(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load monthly trend")
	}

	return &Statistics{
		TotalLoans:        total,
		ActiveLoans:       active,
		ReturnedLoans:     returned,
		DistinctBorrowers: borrowers,
		DistinctItems:     items,
		TopItems:          topItems,
		TopClasses:        topClasses,
		MonthlyTrend:      trend,
	}, nil
}
