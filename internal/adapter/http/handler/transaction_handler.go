package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/txledger/internal/adapter/http/dto"
	"github.com/iho/txledger/internal/domain"
	"github.com/iho/txledger/internal/usecase"
)

// TransactionService is the subset of the transaction use case used over HTTP.
type TransactionService interface {
	CreateTransaction(ctx context.Context, input usecase.CreateTransactionInput) (*domain.TransactionView, error)
	GetTransaction(ctx context.Context, id int64) (*domain.TransactionView, error)
	RollbackTransaction(ctx context.Context, id int64) (*domain.TransactionView, error)
	GetSum(ctx context.Context, id int64) (decimal.Decimal, error)
	ListIDsByType(ctx context.Context, txType string) []int64
}

// TransactionHandler handles transaction-related HTTP requests.
type TransactionHandler struct {
	transactionUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionUC: transactionUC}
}

// Put creates a transaction under the id from the path.
func (h *TransactionHandler) Put(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction ID", err.Error())
		return
	}

	var req dto.PutTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	view, err := h.transactionUC.CreateTransaction(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromView(view))
}

// Get returns a transaction with its descendants.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction ID", err.Error())
		return
	}

	view, err := h.transactionUC.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromView(view))
}

// Rollback deactivates a transaction and its active descendants.
func (h *TransactionHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction ID", err.Error())
		return
	}

	view, err := h.transactionUC.RollbackTransaction(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to roll back transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromView(view))
}

// Sum returns the aggregated amount of the active subtree.
func (h *TransactionHandler) Sum(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction ID", err.Error())
		return
	}

	sum, err := h.transactionUC.GetSum(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to compute sum", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SumResponse{Sum: sum.StringFixed(domain.MaxAmountScale)})
}

// ListByType returns the ids of every transaction with the given type.
func (h *TransactionHandler) ListByType(w http.ResponseWriter, r *http.Request) {
	txType := chi.URLParam(r, "type")
	writeJSON(w, http.StatusOK, h.transactionUC.ListIDsByType(r.Context(), txType))
}
