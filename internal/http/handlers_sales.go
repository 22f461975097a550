package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"bizbook/internal/books"
	"bizbook/internal/core"
)

func (s *Server) handleSales(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listSales(w, r)
	case http.MethodPost:
		s.createSale(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleSaleItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/sales/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		sale, err := s.ledger.Sale(id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sale)
	case http.MethodPut:
		s.updateSale(w, r, id)
	case http.MethodDelete:
		s.deleteSale(w, r, id)
	default:
		methodNotAllowed(w, "GET, PUT, DELETE")
	}
}

func (s *Server) listSales(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.ledger.SalesList(filter))
}

func (s *Server) createSale(w http.ResponseWriter, r *http.Request) {
	var in books.SaleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sale, err := s.ledger.CreateSale(r.Context(), in, identityFrom(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.dashboardCache.Purge()
	writeJSON(w, http.StatusCreated, sale)
}

func (s *Server) updateSale(w http.ResponseWriter, r *http.Request, id string) {
	var in books.SaleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sale, err := s.ledger.UpdateSale(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.dashboardCache.Purge()
	writeJSON(w, http.StatusOK, sale)
}

func (s *Server) deleteSale(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.ledger.DeleteSale(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	s.dashboardCache.Purge()
	slog.InfoContext(r.Context(), "Sale deleted via API", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func parseFilter(r *http.Request) (books.Filter, error) {
	q := r.URL.Query()
	filter := books.Filter{Search: strings.TrimSpace(q.Get("search"))}

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return books.Filter{}, err
		}
		filter.From = d
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return books.Filter{}, err
		}
		filter.To = d
	}
	return filter, nil
}
