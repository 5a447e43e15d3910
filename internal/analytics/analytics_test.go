package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendsight/internal/core"
)

// fakeStore serves canned aggregation results and records the intervals it
// was queried with.
type fakeStore struct {
	categorySums []core.CategoryAmount
	monthlySums  []core.TrendPoint
	userCount    int64
	expenseCount int64
	totalCents   int64
	todayCents   int64
	rollups      []core.UserRollup

	categoryErr error
	countErr    error

	lastFrom time.Time
	lastTo   time.Time
}

func (f *fakeStore) CategorySums(ctx context.Context, userID int64, from, to time.Time) ([]core.CategoryAmount, error) {
	f.lastFrom, f.lastTo = from, to
	return f.categorySums, f.categoryErr
}

func (f *fakeStore) MonthlySums(ctx context.Context, userID int64, from, to time.Time) ([]core.TrendPoint, error) {
	f.lastFrom, f.lastTo = from, to
	return f.monthlySums, nil
}

func (f *fakeStore) CountUsers(ctx context.Context) (int64, error) {
	return f.userCount, f.countErr
}

func (f *fakeStore) CountExpenses(ctx context.Context) (int64, error) {
	return f.expenseCount, nil
}

func (f *fakeStore) SumAmounts(ctx context.Context) (int64, error) {
	return f.totalCents, nil
}

func (f *fakeStore) SumAmountsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return f.todayCents, nil
}

func (f *fakeStore) UserRollups(ctx context.Context) ([]core.UserRollup, error) {
	return f.rollups, nil
}

func newTestService(store *fakeStore, now time.Time) *Service {
	svc := NewService(store)
	svc.now = func() time.Time { return now }
	return svc
}

func TestMonthlyBreakdownAndHighest(t *testing.T) {
	store := &fakeStore{
		// Store ordering: amount desc, name asc.
		categorySums: []core.CategoryAmount{
			{Category: core.CategoryFood, Amount: core.Money{Cents: 8000}},
			{Category: core.CategoryTravel, Amount: core.Money{Cents: 2000}},
		},
	}
	svc := newTestService(store, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	got, err := svc.Monthly(context.Background(), 1, 2026, 8)
	require.NoError(t, err)

	assert.Equal(t, 2026, got.Year)
	assert.Equal(t, 8, got.Month)
	assert.Equal(t, int64(10000), got.TotalMonthly.Cents)

	// The total always equals the breakdown sum.
	var sum core.Money
	for _, ca := range got.Breakdown {
		sum = sum.Add(ca.Amount)
	}
	assert.Equal(t, got.TotalMonthly, sum)

	require.NotNil(t, got.HighestCategory)
	assert.Equal(t, core.CategoryFood, got.HighestCategory.Category)
	assert.Equal(t, int64(8000), got.HighestCategory.Amount.Cents)

	// No other entry exceeds the highest.
	for _, ca := range got.Breakdown {
		assert.LessOrEqual(t, ca.Amount.Cents, got.HighestCategory.Amount.Cents)
	}
}

func TestMonthlyEmptyMonth(t *testing.T) {
	svc := newTestService(&fakeStore{}, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	got, err := svc.Monthly(context.Background(), 1, 2026, 8)
	require.NoError(t, err)

	assert.Zero(t, got.TotalMonthly.Cents)
	assert.Empty(t, got.Breakdown)
	assert.Nil(t, got.HighestCategory)
}

func TestMonthlyDefaultsToCurrentMonth(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	got, err := svc.Monthly(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2026, got.Year)
	assert.Equal(t, 8, got.Month)

	wantFrom, wantTo := core.MonthInterval(2026, 8)
	assert.True(t, store.lastFrom.Equal(wantFrom), "from = %v", store.lastFrom)
	assert.True(t, store.lastTo.Equal(wantTo), "to = %v", store.lastTo)
}

func TestMonthlyRejectsBadMonth(t *testing.T) {
	svc := newTestService(&fakeStore{}, time.Now())

	for _, month := range []int{-1, 13, 99} {
		_, err := svc.Monthly(context.Background(), 1, 2026, month)
		assert.ErrorIs(t, err, core.ErrValidation, "month %d", month)
	}
}

func TestTrendWindowSpansSixMonths(t *testing.T) {
	store := &fakeStore{
		monthlySums: []core.TrendPoint{
			{Year: 2026, Month: 3, Amount: core.Money{Cents: 1000}},
			{Year: 2026, Month: 6, Amount: core.Money{Cents: 2500}},
		},
	}
	svc := newTestService(store, time.Now())

	points, err := svc.Trend(context.Background(), 1, 2026, 8)
	require.NoError(t, err)

	// Window is March through August 2026.
	assert.True(t, store.lastFrom.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)), "from = %v", store.lastFrom)
	_, wantTo := core.MonthInterval(2026, 8)
	assert.True(t, store.lastTo.Equal(wantTo), "to = %v", store.lastTo)

	// Ascending, no duplicates, gaps stay omitted.
	require.Len(t, points, 2)
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		assert.True(t, prev.Year < cur.Year || (prev.Year == cur.Year && prev.Month < cur.Month),
			"points out of order: %+v before %+v", prev, cur)
	}
}

func TestTrendWindowCrossesYearBoundary(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, time.Now())

	_, err := svc.Trend(context.Background(), 1, 2026, 2)
	require.NoError(t, err)

	// Window for February 2026 starts in September 2025.
	assert.True(t, store.lastFrom.Equal(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)), "from = %v", store.lastFrom)
}

func TestOverview(t *testing.T) {
	store := &fakeStore{
		userCount:    3,
		expenseCount: 42,
		totalCents:   123456,
		todayCents:   789,
	}
	svc := newTestService(store, time.Now())

	got, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), got.UserCount)
	assert.Equal(t, int64(42), got.ExpenseCount)
	assert.Equal(t, int64(123456), got.TotalAmount.Cents)
	assert.Equal(t, int64(789), got.TodayAmount.Cents)
}

func TestOverviewAllOrNothing(t *testing.T) {
	store := &fakeStore{countErr: errors.New("db gone")}
	svc := newTestService(store, time.Now())

	_, err := svc.Overview(context.Background())
	require.Error(t, err)
}

func TestUserRollupsPassthrough(t *testing.T) {
	store := &fakeStore{
		rollups: []core.UserRollup{
			{UserID: 2, TotalAmount: core.Money{Cents: 9000}},
			{UserID: 1, TotalAmount: core.Money{Cents: 100}},
			{UserID: 3},
		},
	}
	svc := newTestService(store, time.Now())

	got, err := svc.UserRollups(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(2), got[0].UserID)
	assert.Zero(t, got[2].TotalAmount.Cents)
}
