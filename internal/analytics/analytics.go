// Package analytics derives spending summaries from raw expense records:
// per-month category breakdowns, sliding monthly trends and the cross-user
// admin rollups.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"spendsight/internal/core"
)

// Store is the slice of the persistence layer the aggregators query.
type Store interface {
	CategorySums(ctx context.Context, userID int64, from, to time.Time) ([]core.CategoryAmount, error)
	MonthlySums(ctx context.Context, userID int64, from, to time.Time) ([]core.TrendPoint, error)
	CountUsers(ctx context.Context) (int64, error)
	CountExpenses(ctx context.Context) (int64, error)
	SumAmounts(ctx context.Context) (int64, error)
	SumAmountsBetween(ctx context.Context, from, to time.Time) (int64, error)
	UserRollups(ctx context.Context) ([]core.UserRollup, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// resolveMonth substitutes the current calendar month and year for absent
// (zero) inputs and rejects out-of-range months.
func (s *Service) resolveMonth(year, month int) (int, int, error) {
	now := s.now().UTC()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: month %d out of range", core.ErrValidation, month)
	}
	return year, month, nil
}

// Monthly computes one user's summary for a calendar month: total spend,
// per-category breakdown and the highest-spending category.
//
// The breakdown is ordered by amount descending with ties broken by
// category name, so the highest category is simply the first entry and the
// selection is deterministic regardless of store iteration order.
func (s *Service) Monthly(ctx context.Context, userID int64, year, month int) (core.MonthlyAnalytics, error) {
	year, month, err := s.resolveMonth(year, month)
	if err != nil {
		return core.MonthlyAnalytics{}, err
	}

	from, to := core.MonthInterval(year, month)
	breakdown, err := s.store.CategorySums(ctx, userID, from, to)
	if err != nil {
		return core.MonthlyAnalytics{}, fmt.Errorf("monthly breakdown (user=%d, %d-%02d): %w", userID, year, month, err)
	}

	result := core.MonthlyAnalytics{
		Year:      year,
		Month:     month,
		Breakdown: breakdown,
	}
	for _, ca := range breakdown {
		result.TotalMonthly = result.TotalMonthly.Add(ca.Amount)
	}
	if len(breakdown) > 0 {
		highest := breakdown[0]
		result.HighestCategory = &highest
	}

	slog.DebugContext(ctx, "Monthly analytics computed",
		"user_id", userID,
		"year", year,
		"month", month,
		"total_cents", result.TotalMonthly.Cents,
		"categories", len(breakdown))

	return result, nil
}

// Trend computes one user's per-month totals over the 6-calendar-month
// window ending at the target month, ascending by (year, month). Months
// without expenses are omitted rather than zero-filled.
func (s *Service) Trend(ctx context.Context, userID int64, year, month int) ([]core.TrendPoint, error) {
	year, month, err := s.resolveMonth(year, month)
	if err != nil {
		return nil, err
	}

	// time.Date normalizes month-5 across year boundaries.
	from := time.Date(year, time.Month(month-5), 1, 0, 0, 0, 0, time.UTC)
	_, to := core.MonthInterval(year, month)

	points, err := s.store.MonthlySums(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("monthly trend (user=%d, %d-%02d): %w", userID, year, month, err)
	}
	return points, nil
}

// Overview computes the four system-wide counters. The counters are
// independent and run concurrently; a failure of any sub-query fails the
// whole overview rather than returning a partial result. The "today"
// window is the UTC calendar day, matching how expense dates are stored.
func (s *Service) Overview(ctx context.Context) (core.AdminOverview, error) {
	var overview core.AdminOverview

	today := s.now()
	from := core.StartOfDay(today)
	to := core.EndOfDay(today)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.CountUsers(gctx)
		if err != nil {
			return fmt.Errorf("user count: %w", err)
		}
		overview.UserCount = n
		return nil
	})
	g.Go(func() error {
		n, err := s.store.CountExpenses(gctx)
		if err != nil {
			return fmt.Errorf("expense count: %w", err)
		}
		overview.ExpenseCount = n
		return nil
	})
	g.Go(func() error {
		cents, err := s.store.SumAmounts(gctx)
		if err != nil {
			return fmt.Errorf("grand total: %w", err)
		}
		overview.TotalAmount = core.Money{Cents: cents}
		return nil
	})
	g.Go(func() error {
		cents, err := s.store.SumAmountsBetween(gctx, from, to)
		if err != nil {
			return fmt.Errorf("today total: %w", err)
		}
		overview.TodayAmount = core.Money{Cents: cents}
		return nil
	})

	if err := g.Wait(); err != nil {
		return core.AdminOverview{}, fmt.Errorf("admin overview: %w", err)
	}

	return overview, nil
}

// UserRollups returns the per-user spend summary: exactly one row per
// registered user, users without expenses included with zero totals,
// sorted by total spend descending.
func (s *Service) UserRollups(ctx context.Context) ([]core.UserRollup, error) {
	rollups, err := s.store.UserRollups(ctx)
	if err != nil {
		return nil, fmt.Errorf("user rollups: %w", err)
	}
	return rollups, nil
}
