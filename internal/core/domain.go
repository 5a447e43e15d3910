package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	CategoryFood     Category = "Food"
	CategoryTravel   Category = "Travel"
	CategoryShopping Category = "Shopping"
	CategoryBills    Category = "Bills"
	CategoryOther    Category = "Other"
)

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type (
	Category string

	Role string

	Money struct {
		Cents int64
	}

	Expense struct {
		ID        int64
		Title     string
		Amount    Money
		Category  Category
		Date      time.Time
		Note      string
		UserID    int64
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	User struct {
		ID           int64
		Name         string
		Email        string
		PasswordHash string
		Role         Role
		CreatedAt    time.Time
	}
)

// ErrValidation is the base kind for malformed or missing input; the
// specific sentinels below wrap it so callers can match either level.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrEmptyTitle      = fmt.Errorf("%w: title is required", ErrValidation)
	ErrInvalidAmount   = fmt.Errorf("%w: amount must be a non-negative decimal", ErrValidation)
	ErrInvalidCategory = fmt.Errorf("%w: unknown category", ErrValidation)
	ErrInvalidDate     = fmt.Errorf("%w: date is required", ErrValidation)
)

// Categories lists the fixed category set in display order.
func Categories() []Category {
	return []Category{CategoryFood, CategoryTravel, CategoryShopping, CategoryBills, CategoryOther}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryTravel, CategoryShopping, CategoryBills, CategoryOther:
		return true
	}
	return false
}

// NormalizeCategory maps an omitted category to CategoryOther and rejects
// anything outside the fixed set. Matching is case-sensitive.
func NormalizeCategory(s string) (Category, error) {
	if strings.TrimSpace(s) == "" {
		return CategoryOther, nil
	}
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return fmt.Errorf("%w: title too long (max 200 characters)", ErrValidation)
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, string(e.Category))
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(e.Note) > 500 {
		return fmt.Errorf("%w: note too long (max 500 characters)", ErrValidation)
	}
	return nil
}

func (u User) Validate() error {
	if len(strings.TrimSpace(u.Name)) == 0 {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: invalid role %q", ErrValidation, string(u.Role))
	}
	return nil
}
