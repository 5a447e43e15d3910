package core

import (
	"errors"
	"testing"
	"time"
)

func TestBuildExpenseFilter(t *testing.T) {
	t.Run("all parameters absent", func(t *testing.T) {
		f, err := BuildExpenseFilter(7, "", "", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.UserID != 7 {
			t.Errorf("UserID = %d, want 7", f.UserID)
		}
		if !f.From.IsZero() || !f.To.IsZero() || f.Category != "" {
			t.Errorf("absent parameters should leave zero constraints, got %+v", f)
		}
	})

	t.Run("date range widened to day bounds", func(t *testing.T) {
		f, err := BuildExpenseFilter(1, "2026-08-01", "2026-08-31", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		wantFrom := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		if !f.From.Equal(wantFrom) {
			t.Errorf("From = %v, want %v", f.From, wantFrom)
		}
		if f.To.Day() != 31 || f.To.Hour() != 23 || f.To.Minute() != 59 {
			t.Errorf("To should be the last instant of the day, got %v", f.To)
		}
	})

	t.Run("category All disables the constraint", func(t *testing.T) {
		f, err := BuildExpenseFilter(1, "", "", CategoryAll)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.Category != "" {
			t.Errorf("Category = %q, want empty", f.Category)
		}
	})

	t.Run("specific category kept", func(t *testing.T) {
		f, err := BuildExpenseFilter(1, "", "", "Travel")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.Category != CategoryTravel {
			t.Errorf("Category = %q, want Travel", f.Category)
		}
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		_, err := BuildExpenseFilter(1, "", "", "Gadgets")
		if !errors.Is(err, ErrInvalidCategory) {
			t.Errorf("error = %v, want ErrInvalidCategory", err)
		}
	})

	t.Run("unparseable dates rejected", func(t *testing.T) {
		for _, bad := range []string{"08/01/2026", "2026-13-01", "yesterday"} {
			if _, err := BuildExpenseFilter(1, bad, "", ""); !errors.Is(err, ErrValidation) {
				t.Errorf("start date %q: error = %v, want ErrValidation", bad, err)
			}
			if _, err := BuildExpenseFilter(1, "", bad, ""); !errors.Is(err, ErrValidation) {
				t.Errorf("end date %q: error = %v, want ErrValidation", bad, err)
			}
		}
	})
}

func TestMonthInterval(t *testing.T) {
	from, to := MonthInterval(2026, 2)
	if from != time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("from = %v", from)
	}
	if to.Month() != time.February || to.Day() != 28 {
		t.Errorf("to should be the last instant of February, got %v", to)
	}
	if !to.Before(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("to must precede the next month start, got %v", to)
	}

	// Leap year February
	_, leapTo := MonthInterval(2028, 2)
	if leapTo.Day() != 29 {
		t.Errorf("2028 February should end on the 29th, got %v", leapTo)
	}

	// December wraps the year
	_, decTo := MonthInterval(2026, 12)
	if decTo.Year() != 2026 || decTo.Month() != time.December || decTo.Day() != 31 {
		t.Errorf("December interval end = %v", decTo)
	}
}

func TestStartEndOfDay(t *testing.T) {
	ts := time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC)
	start := StartOfDay(ts)
	end := EndOfDay(ts)

	if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
		t.Errorf("StartOfDay = %v", start)
	}
	if end.Hour() != 23 || end.Minute() != 59 || end.Second() != 59 {
		t.Errorf("EndOfDay = %v", end)
	}
	if !start.Before(end) {
		t.Errorf("start %v should precede end %v", start, end)
	}
}
