package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"bizbook/internal/books"
)

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listExpenses(w, r)
	case http.MethodPost:
		s.createExpense(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleExpenseItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/expenses/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		expense, err := s.ledger.Expense(id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, expense)
	case http.MethodPut:
		s.updateExpense(w, r, id)
	case http.MethodDelete:
		s.deleteExpense(w, r, id)
	default:
		methodNotAllowed(w, "GET, PUT, DELETE")
	}
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.ledger.ExpensesList(filter))
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	var in books.ExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := s.ledger.CreateExpense(r.Context(), in, identityFrom(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.dashboardCache.Purge()
	writeJSON(w, http.StatusCreated, expense)
}

func (s *Server) updateExpense(w http.ResponseWriter, r *http.Request, id string) {
	var in books.ExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := s.ledger.UpdateExpense(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.dashboardCache.Purge()
	writeJSON(w, http.StatusOK, expense)
}

func (s *Server) deleteExpense(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.ledger.DeleteExpense(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	s.dashboardCache.Purge()
	slog.InfoContext(r.Context(), "Expense deleted via API", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePurposes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	q := r.URL.Query()
	limit := 10
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = n
	}

	suggestions := s.ledger.PurposeSuggestions(q.Get("prefix"), limit)
	writeJSON(w, http.StatusOK, map[string]any{"purposes": suggestions})
}
