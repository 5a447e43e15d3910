package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendsight/internal/amqp"
	"spendsight/internal/core"
	"spendsight/internal/storage"
)

// ExpenseService orchestrates expense mutations: validation, the
// ownership guard, persistence and best-effort event publishing.
type ExpenseService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewExpenseService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *ExpenseService {
	return &ExpenseService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// ExpenseUpdate carries a partial update; nil fields keep the stored value.
type ExpenseUpdate struct {
	Title    *string
	Amount   *core.Money
	Category *core.Category
	Date     *time.Time
	Note     *string
}

// Create validates and stores a new expense and publishes a created event.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publishEvent(ctx, amqp.ActionCreated, created)
	return created, nil
}

// Get returns an expense scoped to its owner.
func (s *ExpenseService) Get(ctx context.Context, id, userID int64) (core.Expense, error) {
	return s.storage.GetExpense(ctx, id, userID)
}

// List returns the expenses matching a filter, newest first.
func (s *ExpenseService) List(ctx context.Context, f core.ExpenseFilter) ([]core.Expense, error) {
	return s.storage.ListExpenses(ctx, f)
}

// Update applies a partial update to an owner-scoped expense. Omitted
// fields keep their stored values; the owner reference never changes. An
// expense owned by someone else reports not-found.
func (s *ExpenseService) Update(ctx context.Context, id, userID int64, upd ExpenseUpdate) (core.Expense, error) {
	e, err := s.storage.GetExpense(ctx, id, userID)
	if err != nil {
		return core.Expense{}, err
	}

	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Amount != nil {
		e.Amount = *upd.Amount
	}
	if upd.Category != nil {
		e.Category = *upd.Category
	}
	if upd.Date != nil {
		e.Date = *upd.Date
	}
	if upd.Note != nil {
		e.Note = *upd.Note
	}

	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if err := s.storage.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, err
	}

	s.publishEvent(ctx, amqp.ActionUpdated, e)
	return e, nil
}

// Delete removes an owner-scoped expense and publishes a deleted event.
func (s *ExpenseService) Delete(ctx context.Context, id, userID int64) error {
	// Load first so the event carries amount and category.
	e, err := s.storage.GetExpense(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteExpense(ctx, id, userID); err != nil {
		return err
	}

	s.publishEvent(ctx, amqp.ActionDeleted, e)
	return nil
}

// publishEvent emits an expense event without failing the request; the
// mutation already succeeded locally.
func (s *ExpenseService) publishEvent(ctx context.Context, action string, e core.Expense) {
	if s.amqpClient == nil {
		return
	}

	msg := amqp.NewExpenseEventMessage(action, e.ID, e.UserID, e.Amount.Cents, string(e.Category))
	if err := s.amqpClient.PublishExpenseEvent(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"action", action,
			"expense_id", e.ID,
			"error", err)
	}
}

// Close closes both storage and AMQP connections
func (s *ExpenseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}

	return nil
}
