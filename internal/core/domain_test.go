package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validExpense() Expense {
	return Expense{
		Title:    "Groceries",
		Amount:   Money{Cents: 1250},
		Category: CategoryFood,
		Date:     time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		UserID:   1,
	}
}

func TestExpenseValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Expense)
		wantErr error
	}{
		{"valid", func(e *Expense) {}, nil},
		{"zero amount allowed", func(e *Expense) { e.Amount = Money{} }, nil},
		{"empty title", func(e *Expense) { e.Title = "" }, ErrEmptyTitle},
		{"whitespace title", func(e *Expense) { e.Title = "   " }, ErrEmptyTitle},
		{"title too long", func(e *Expense) { e.Title = strings.Repeat("x", 201) }, ErrValidation},
		{"negative amount", func(e *Expense) { e.Amount = Money{Cents: -1} }, ErrInvalidAmount},
		{"unknown category", func(e *Expense) { e.Category = "Gadgets" }, ErrInvalidCategory},
		{"empty category", func(e *Expense) { e.Category = "" }, ErrInvalidCategory},
		{"zero date", func(e *Expense) { e.Date = time.Time{} }, ErrInvalidDate},
		{"note too long", func(e *Expense) { e.Note = strings.Repeat("x", 501) }, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExpense()
			tt.mutate(&e)
			err := e.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() = %v, should wrap ErrValidation", err)
			}
		})
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		input   string
		want    Category
		wantErr bool
	}{
		{"Food", CategoryFood, false},
		{"Other", CategoryOther, false},
		{"", CategoryOther, false},
		{"   ", CategoryOther, false},
		{"food", "", true}, // case-sensitive
		{"Gadgets", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeCategory(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidCategory) {
				t.Errorf("NormalizeCategory(%q) = %v, want ErrInvalidCategory", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeCategory(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeCategory(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCategories(t *testing.T) {
	cats := Categories()
	if len(cats) != 5 {
		t.Fatalf("Categories() returned %d entries, want 5", len(cats))
	}
	for _, c := range cats {
		if !c.Valid() {
			t.Errorf("Categories() contains invalid category %q", c)
		}
	}
}

func TestUserValidate(t *testing.T) {
	u := User{Name: "Ada", Email: "ada@example.com", Role: RoleUser}
	if err := u.Validate(); err != nil {
		t.Fatalf("valid user rejected: %v", err)
	}

	u.Email = "not-an-email"
	if err := u.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("invalid email accepted: %v", err)
	}

	u.Email = "ada@example.com"
	u.Role = "superuser"
	if err := u.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("invalid role accepted: %v", err)
	}
}
