package http

import (
	"net/http"
	"time"

	"spendsight/internal/core"
)

type adminOverviewJSON struct {
	UserCount    int64  `json:"user_count"`
	ExpenseCount int64  `json:"expense_count"`
	TotalAmount  string `json:"total_amount"`
	TodayAmount  string `json:"today_amount"`
}

type userRollupJSON struct {
	UserID       int64     `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	TotalAmount  string    `json:"total_amount"`
	ExpenseCount int64     `json:"expense_count"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Server) handleAdminOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.analytics.Overview(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, adminOverviewJSON{
		UserCount:    overview.UserCount,
		ExpenseCount: overview.ExpenseCount,
		TotalAmount:  overview.TotalAmount.Decimal(),
		TodayAmount:  overview.TodayAmount.Decimal(),
	})
}

func (s *Server) handleUserRollups(w http.ResponseWriter, r *http.Request) {
	rollups, err := s.analytics.UserRollups(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]userRollupJSON, 0, len(rollups))
	for _, ru := range rollups {
		out = append(out, toRollupJSON(ru))
	}

	respondJSON(w, http.StatusOK, out)
}

func toRollupJSON(ru core.UserRollup) userRollupJSON {
	return userRollupJSON{
		UserID:       ru.UserID,
		Name:         ru.Name,
		Email:        ru.Email,
		Role:         string(ru.Role),
		TotalAmount:  ru.TotalAmount.Decimal(),
		ExpenseCount: ru.ExpenseCount,
		CreatedAt:    ru.CreatedAt,
	}
}
