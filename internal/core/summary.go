package core

import "time"

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   Money
}

// MonthlyAnalytics is the per-user summary for one calendar month.
// HighestCategory is nil when the month has no expenses. TotalMonthly
// always equals the sum of the breakdown amounts.
type MonthlyAnalytics struct {
	Year            int
	Month           int // 1-12
	TotalMonthly    Money
	Breakdown       []CategoryAmount
	HighestCategory *CategoryAmount
}

// TrendPoint is one month of the sliding spending trend. Months with no
// expenses are omitted from the trend rather than zero-filled.
type TrendPoint struct {
	Year   int
	Month  int // 1-12
	Amount Money
}

// AdminOverview holds the four system-wide counters.
type AdminOverview struct {
	UserCount    int64
	ExpenseCount int64
	TotalAmount  Money
	TodayAmount  Money
}

// UserRollup is one row of the per-user admin rollup; users without
// expenses appear with zero totals.
type UserRollup struct {
	UserID       int64
	Name         string
	Email        string
	Role         Role
	TotalAmount  Money
	ExpenseCount int64
	CreatedAt    time.Time
}
