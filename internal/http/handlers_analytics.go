package http

import (
	"log/slog"
	"net/http"

	"spendsight/internal/core"
)

type categoryAmountJSON struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

type monthlyAnalyticsJSON struct {
	Year            int                  `json:"year"`
	Month           int                  `json:"month"`
	TotalMonthly    string               `json:"total_monthly"`
	Breakdown       []categoryAmountJSON `json:"breakdown"`
	HighestCategory *categoryAmountJSON  `json:"highest_category"`
}

type trendPointJSON struct {
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Amount string `json:"amount"`
}

func toMonthlyJSON(m core.MonthlyAnalytics) monthlyAnalyticsJSON {
	out := monthlyAnalyticsJSON{
		Year:         m.Year,
		Month:        m.Month,
		TotalMonthly: m.TotalMonthly.Decimal(),
		Breakdown:    make([]categoryAmountJSON, 0, len(m.Breakdown)),
	}
	for _, ca := range m.Breakdown {
		out.Breakdown = append(out.Breakdown, categoryAmountJSON{
			Category: string(ca.Category),
			Amount:   ca.Amount.Decimal(),
		})
	}
	if m.HighestCategory != nil {
		out.HighestCategory = &categoryAmountJSON{
			Category: string(m.HighestCategory.Category),
			Amount:   m.HighestCategory.Amount.Decimal(),
		}
	}
	return out
}

func (s *Server) handleMonthlyAnalytics(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	year, month, err := parseYearMonth(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	// Explicit months are cacheable; a defaulted "current month" request
	// is resolved by the service and skips the cache.
	explicit := year != 0 && month != 0
	key := analyticsCacheKey(claims.UserID, year, month)
	if explicit {
		if cached, found := s.monthlyCache.Get(key); found {
			slog.DebugContext(r.Context(), "Monthly analytics cache hit", "user_id", claims.UserID, "key", key)
			respondJSON(w, http.StatusOK, toMonthlyJSON(cached))
			return
		}
	}

	result, err := s.analytics.Monthly(r.Context(), claims.UserID, year, month)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if explicit {
		s.monthlyCache.Set(key, result)
	}

	respondJSON(w, http.StatusOK, toMonthlyJSON(result))
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	year, month, err := parseYearMonth(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	explicit := year != 0 && month != 0
	key := analyticsCacheKey(claims.UserID, year, month)
	if explicit {
		if cached, found := s.trendCache.Get(key); found {
			slog.DebugContext(r.Context(), "Trend cache hit", "user_id", claims.UserID, "key", key)
			respondJSON(w, http.StatusOK, toTrendJSON(cached))
			return
		}
	}

	points, err := s.analytics.Trend(r.Context(), claims.UserID, year, month)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if explicit {
		s.trendCache.Set(key, points)
	}

	respondJSON(w, http.StatusOK, toTrendJSON(points))
}

func toTrendJSON(points []core.TrendPoint) []trendPointJSON {
	out := make([]trendPointJSON, 0, len(points))
	for _, p := range points {
		out = append(out, trendPointJSON{Year: p.Year, Month: p.Month, Amount: p.Amount.Decimal()})
	}
	return out
}
