package http

import (
	"fmt"
	"net/http"
	"time"

	"spendsight/internal/core"
	"spendsight/internal/services"
)

type createExpenseRequest struct {
	Title    string `json:"title"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
	Note     string `json:"note"`
}

// updateExpenseRequest distinguishes omitted fields from explicit ones so
// updates can be partial.
type updateExpenseRequest struct {
	Title    *string `json:"title"`
	Amount   *string `json:"amount"`
	Category *string `json:"category"`
	Date     *string `json:"date"`
	Note     *string `json:"note"`
}

func parseExpenseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, core.ErrInvalidDate
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: unparseable date %q", core.ErrValidation, s)
	}
	return t.UTC(), nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	category, err := core.NormalizeCategory(req.Category)
	if err != nil {
		respondError(w, r, err)
		return
	}
	date, err := parseExpenseDate(req.Date)
	if err != nil {
		respondError(w, r, err)
		return
	}

	expense := core.Expense{
		Title:    sanitizeInput(req.Title),
		Amount:   core.Money{Cents: cents},
		Category: category,
		Date:     date,
		Note:     sanitizeInput(req.Note),
		UserID:   claims.UserID,
	}

	created, err := s.expenses.Create(r.Context(), expense)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateAnalytics(claims.UserID)
	respondJSON(w, http.StatusCreated, toExpenseJSON(created))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	q := r.URL.Query()

	filter, err := core.BuildExpenseFilter(claims.UserID, q.Get("start_date"), q.Get("end_date"), q.Get("category"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	items, err := s.expenses.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toExpenseListJSON(items))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	expense, err := s.expenses.Get(r.Context(), id, claims.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toExpenseJSON(expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req updateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	var upd services.ExpenseUpdate
	if req.Title != nil {
		title := sanitizeInput(*req.Title)
		upd.Title = &title
	}
	if req.Amount != nil {
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			respondError(w, r, err)
			return
		}
		upd.Amount = &core.Money{Cents: cents}
	}
	if req.Category != nil {
		category, err := core.NormalizeCategory(*req.Category)
		if err != nil {
			respondError(w, r, err)
			return
		}
		upd.Category = &category
	}
	if req.Date != nil {
		date, err := parseExpenseDate(*req.Date)
		if err != nil {
			respondError(w, r, err)
			return
		}
		upd.Date = &date
	}
	if req.Note != nil {
		note := sanitizeInput(*req.Note)
		upd.Note = &note
	}

	updated, err := s.expenses.Update(r.Context(), id, claims.UserID, upd)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateAnalytics(claims.UserID)
	respondJSON(w, http.StatusOK, toExpenseJSON(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.expenses.Delete(r.Context(), id, claims.UserID); err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateAnalytics(claims.UserID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
