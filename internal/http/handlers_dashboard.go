package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bizbook/internal/report"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	q := r.URL.Query()
	period := report.Period(strings.TrimSpace(q.Get("period")))
	if period == "" {
		period = report.PeriodMonth
	}
	if !period.Valid() {
		writeError(w, http.StatusBadRequest, "unknown period")
		return
	}
	business := strings.TrimSpace(q.Get("business"))

	key := string(period) + "|" + business
	if totals, found := s.dashboardCache.Get(key); found {
		slog.DebugContext(r.Context(), "Dashboard cache hit", "period", period, "business", business)
		writeJSON(w, http.StatusOK, totals)
		return
	}

	snap := s.ledger.Snapshot()
	totals := report.Aggregate(snap.Sales, snap.Expenses, report.Options{
		Period:       period,
		Business:     business,
		Now:          time.Now(),
		StartingCash: s.startingCash,
		StartingUPI:  s.startingUPI,
	})

	s.dashboardCache.Set(key, totals)
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	snap := s.ledger.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"state":       s.ledger.State(),
		"online":      s.ledger.Online(),
		"lastUpdated": snap.LastUpdated,
		"sales":       len(snap.Sales),
		"expenses":    len(snap.Expenses),
	})
}

func (s *Server) handleSyncRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	if err := s.ledger.Load(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}

	s.dashboardCache.Purge()
	writeJSON(w, http.StatusOK, map[string]any{"state": s.ledger.State()})
}
