package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"budgat/internal/core"
	"budgat/internal/ledgercsv"
)

type transactionPayload struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Remark      string `json:"remark"`
}

// toTransaction maps the payload onto the domain type. Empty or malformed
// fields become zero values so Validate reports the missing-field sentinel.
func (p transactionPayload) toTransaction() core.Transaction {
	tx := core.Transaction{
		Description: strings.TrimSpace(p.Description),
		Category:    strings.TrimSpace(p.Category),
		Remark:      strings.TrimSpace(p.Remark),
	}
	if d, err := core.ParseDate(p.Date); err == nil {
		tx.Date = d
	}
	if a, err := core.ParseAmount(p.Amount); err == nil {
		tx.Amount = a
	}
	return tx
}

type categoryPayload struct {
	Name          string `json:"name"`
	MonthlyBudget string `json:"monthly_budget"`
	Kind          string `json:"kind"`
}

func (p categoryPayload) toCategory() core.Category {
	c := core.Category{
		Name: strings.TrimSpace(p.Name),
		Kind: core.CategoryKind(strings.TrimSpace(p.Kind)),
	}
	if b, err := core.ParseAmount(p.MonthlyBudget); err == nil {
		c.MonthlyBudget = b
	}
	return c
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if !methodGuard(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		txs, err := s.ledger.ListTransactions(ctx)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, txs)

	case http.MethodPost:
		var payload transactionPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		id, err := s.ledger.CreateTransaction(ctx, payload.toTransaction())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
	}
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	if !methodGuard(w, r, http.MethodPut, http.MethodDelete) {
		return
	}
	id, err := pathID(r, "/api/transactions/")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	switch r.Method {
	case http.MethodPut:
		var payload transactionPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		tx := payload.toTransaction()
		tx.ID = id
		if err := s.ledger.UpdateTransaction(ctx, tx); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if err := s.ledger.DeleteTransaction(ctx, id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if !methodGuard(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		cats, err := s.ledger.ListCategories(ctx)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cats)

	case http.MethodPost:
		var payload categoryPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		id, err := s.ledger.CreateCategory(ctx, payload.toCategory())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
	}
}

func (s *Server) handleCategoryByID(w http.ResponseWriter, r *http.Request) {
	if !methodGuard(w, r, http.MethodPut, http.MethodDelete) {
		return
	}
	id, err := pathID(r, "/api/categories/")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	switch r.Method {
	case http.MethodPut:
		var payload categoryPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		cat := payload.toCategory()
		cat.ID = id
		if err := s.ledger.UpdateCategory(ctx, cat); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if err := s.ledger.DeleteCategory(ctx, id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type snapshotPayload struct {
	CategoryID int64  `json:"category_id"`
	Month      string `json:"month"`
	Amount     string `json:"amount"`
}

func (s *Server) handleEditSnapshot(w http.ResponseWriter, r *http.Request) {
	if !methodGuard(w, r, http.MethodPut) {
		return
	}
	var payload snapshotPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	month, err := core.ParseMonthKey(payload.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := s.ledger.EditSnapshot(ctx, payload.CategoryID, month, payload.Amount); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if !methodGuard(w, r, http.MethodPost) {
		return
	}
	txs, err := ledgercsv.Read(r.Body)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	if len(txs) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "no importable rows"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := s.ledger.ImportTransactions(ctx, txs); err != nil {
		writeError(w, r, err)
		return
	}
	slog.InfoContext(ctx, "Ledger import completed", "rows", len(txs))
	writeJSON(w, http.StatusCreated, map[string]int{"imported": len(txs)})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if !methodGuard(w, r, http.MethodGet) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	txs, err := s.ledger.ListTransactions(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger.csv"`)
	if err := ledgercsv.Write(w, txs); err != nil {
		slog.ErrorContext(ctx, "Failed to stream CSV export", "error", err)
	}
}
