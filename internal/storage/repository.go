package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spendsight/internal/core"

	_ "modernc.org/sqlite"
)

// ErrDuplicateEmail reports a registration attempt with an email that is
// already taken.
var ErrDuplicateEmail = errors.New("email already registered")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateUser inserts a new user. A taken email yields ErrDuplicateEmail.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.PasswordHash, string(u.Role), now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.User{}, ErrDuplicateEmail
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user insert id: %w", err)
	}

	u.ID = id
	u.CreatedAt = now

	slog.InfoContext(ctx, "User created", "user_id", id, "email", u.Email, "role", u.Role)
	return u, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.Role = core.Role(role)
	return u, nil
}

func (r *SQLiteRepository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// CreateExpense inserts a new expense and returns it with its assigned id.
// The date is normalized to UTC; year and month are denormalized for the
// grouping queries.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	now := time.Now().UTC()
	date := e.Date.UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (title, amount_cents, category, date, year, month, note, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Title, e.Amount.Cents, string(e.Category), date, date.Year(), int(date.Month()), e.Note, e.UserID, now, now,
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense insert id: %w", err)
	}

	e.ID = id
	e.Date = date
	e.CreatedAt = now
	e.UpdatedAt = now

	slog.InfoContext(ctx, "Expense saved",
		"expense_id", id,
		"user_id", e.UserID,
		"category", e.Category,
		"amount_cents", e.Amount.Cents)

	return e, nil
}

// GetExpense fetches one expense scoped to its owner. An id that exists but
// belongs to another user is reported as ErrNotFound, indistinguishable
// from a missing id.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id, userID int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, amount_cents, category, date, note, user_id, created_at, updated_at
		 FROM expenses WHERE id = ? AND user_id = ?`, id, userID)

	var e core.Expense
	var category string
	err := row.Scan(&e.ID, &e.Title, &e.Amount.Cents, &category, &e.Date, &e.Note, &e.UserID, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.Category = core.Category(category)
	return e, nil
}

// UpdateExpense rewrites an owner-scoped expense row. The caller is
// expected to have loaded the row first and applied partial changes.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	date := e.Date.UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET title = ?, amount_cents = ?, category = ?, date = ?, year = ?, month = ?, note = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		e.Title, e.Amount.Cents, string(e.Category), date, date.Year(), int(date.Month()), e.Note, time.Now().UTC(),
		e.ID, e.UserID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Expense updated", "expense_id", e.ID, "user_id", e.UserID)
	return nil
}

// DeleteExpense removes an owner-scoped expense row.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Expense deleted", "expense_id", id, "user_id", userID)
	return nil
}

// ListExpenses returns the expenses matching a filter, newest first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, f core.ExpenseFilter) ([]core.Expense, error) {
	query := `SELECT id, title, amount_cents, category, date, note, user_id, created_at, updated_at
	          FROM expenses WHERE user_id = ?`
	args := []any{f.UserID}

	if !f.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		query += ` AND date <= ?`
		args = append(args, f.To.UTC())
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(f.Category))
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var e core.Expense
		var category string
		if err := rows.Scan(&e.ID, &e.Title, &e.Amount.Cents, &category, &e.Date, &e.Note, &e.UserID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Category = core.Category(category)
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// CategorySums returns per-category amount sums for one user within a
// closed date interval, ordered by amount descending with ties broken by
// category name so the result is deterministic.
func (r *SQLiteRepository) CategorySums(ctx context.Context, userID int64, from, to time.Time) ([]core.CategoryAmount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, COALESCE(SUM(amount_cents), 0) AS total_cents
		 FROM expenses
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 GROUP BY category
		 ORDER BY total_cents DESC, category ASC`,
		userID, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("category sums: %w", err)
	}
	defer rows.Close()

	var sums []core.CategoryAmount
	for rows.Next() {
		var category string
		var cents int64
		if err := rows.Scan(&category, &cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		sums = append(sums, core.CategoryAmount{
			Category: core.Category(category),
			Amount:   core.Money{Cents: cents},
		})
	}
	return sums, rows.Err()
}

// MonthlySums returns per-calendar-month amount sums for one user within a
// closed date interval, ascending by (year, month). Months without
// expenses produce no row.
func (r *SQLiteRepository) MonthlySums(ctx context.Context, userID int64, from, to time.Time) ([]core.TrendPoint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT year, month, COALESCE(SUM(amount_cents), 0) AS total_cents
		 FROM expenses
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 GROUP BY year, month
		 ORDER BY year ASC, month ASC`,
		userID, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("monthly sums: %w", err)
	}
	defer rows.Close()

	var points []core.TrendPoint
	for rows.Next() {
		var p core.TrendPoint
		var cents int64
		if err := rows.Scan(&p.Year, &p.Month, &cents); err != nil {
			return nil, fmt.Errorf("scan monthly sum: %w", err)
		}
		p.Amount = core.Money{Cents: cents}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *SQLiteRepository) CountExpenses(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

// SumAmounts returns the grand total across all users' expenses.
func (r *SQLiteRepository) SumAmounts(ctx context.Context) (int64, error) {
	var cents int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses`).Scan(&cents); err != nil {
		return 0, fmt.Errorf("sum amounts: %w", err)
	}
	return cents, nil
}

// SumAmountsBetween returns the cross-user total within a closed interval.
func (r *SQLiteRepository) SumAmountsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var cents int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE date >= ? AND date <= ?`,
		from.UTC(), to.UTC()).Scan(&cents); err != nil {
		return 0, fmt.Errorf("sum amounts between: %w", err)
	}
	return cents, nil
}

// UserRollups returns one row per registered user with their total spend
// and expense count, zero for users without expenses. Rows are ordered by
// total descending, ties by user id ascending.
func (r *SQLiteRepository) UserRollups(ctx context.Context) ([]core.UserRollup, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.email, u.role, u.created_at,
		        COALESCE(SUM(e.amount_cents), 0) AS total_cents,
		        COUNT(e.id) AS expense_count
		 FROM users u
		 LEFT JOIN expenses e ON e.user_id = u.id
		 GROUP BY u.id
		 ORDER BY total_cents DESC, u.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("user rollups: %w", err)
	}
	defer rows.Close()

	var rollups []core.UserRollup
	for rows.Next() {
		var ru core.UserRollup
		var role string
		var cents int64
		if err := rows.Scan(&ru.UserID, &ru.Name, &ru.Email, &role, &ru.CreatedAt, &cents, &ru.ExpenseCount); err != nil {
			return nil, fmt.Errorf("scan user rollup: %w", err)
		}
		ru.Role = core.Role(role)
		ru.TotalAmount = core.Money{Cents: cents}
		rollups = append(rollups, ru)
	}
	return rollups, rows.Err()
}

// ExpenseEvent is one audit trail entry recorded by the worker.
type ExpenseEvent struct {
	EventID     string
	ExpenseID   int64
	UserID      int64
	Action      string
	AmountCents int64
	Category    string
	OccurredAt  time.Time
}

// RecordExpenseEvent appends an audit entry. Replayed events (same event
// id) are ignored so the worker can safely requeue deliveries.
func (r *SQLiteRepository) RecordExpenseEvent(ctx context.Context, ev ExpenseEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO expense_events (event_id, expense_id, user_id, action, amount_cents, category, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.EventID, ev.ExpenseID, ev.UserID, ev.Action, ev.AmountCents, ev.Category, ev.OccurredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record expense event: %w", err)
	}

	slog.InfoContext(ctx, "Expense event recorded",
		"event_id", ev.EventID,
		"expense_id", ev.ExpenseID,
		"action", ev.Action)
	return nil
}

// CountExpenseEvents returns the size of the audit trail.
func (r *SQLiteRepository) CountExpenseEvents(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expense_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count expense events: %w", err)
	}
	return n, nil
}
