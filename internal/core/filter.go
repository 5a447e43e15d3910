package core

import (
	"fmt"
	"time"
)

// CategoryAll is the sentinel filter value meaning "no category filter".
const CategoryAll = "All"

// ExpenseFilter is the normalized query predicate built from request
// parameters. UserID is always set; zero From/To and empty Category mean
// the respective constraint is absent.
type ExpenseFilter struct {
	UserID   int64
	From     time.Time
	To       time.Time
	Category Category
}

// BuildExpenseFilter turns optional date-range and category parameters into
// a filter scoped to the requesting user.
//
// Dates use the "2006-01-02" layout. A start date constrains to the first
// instant of that day, an end date to its last instant (inclusive). The
// category "All" (or empty) disables the category constraint; any other
// value must be one of the fixed set, matched case-sensitively.
func BuildExpenseFilter(userID int64, startDate, endDate, category string) (ExpenseFilter, error) {
	f := ExpenseFilter{UserID: userID}

	if startDate != "" {
		t, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return ExpenseFilter{}, fmt.Errorf("%w: unparseable start date %q", ErrValidation, startDate)
		}
		f.From = StartOfDay(t)
	}
	if endDate != "" {
		t, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return ExpenseFilter{}, fmt.Errorf("%w: unparseable end date %q", ErrValidation, endDate)
		}
		f.To = EndOfDay(t)
	}
	if category != "" && category != CategoryAll {
		c := Category(category)
		if !c.Valid() {
			return ExpenseFilter{}, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
		}
		f.Category = c
	}
	return f, nil
}

// StartOfDay returns the first instant of t's calendar day in UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last instant of t's calendar day in UTC.
func EndOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

// MonthInterval returns the closed [first instant, last instant] interval
// of the given calendar month in UTC.
func MonthInterval(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}
