package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/txledger/internal/adapter/http/dto"
	"github.com/iho/txledger/internal/domain"
	"github.com/iho/txledger/internal/usecase"
)

type transactionServiceStub struct {
	createFn   func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.TransactionView, error)
	getFn      func(ctx context.Context, id int64) (*domain.TransactionView, error)
	rollbackFn func(ctx context.Context, id int64) (*domain.TransactionView, error)
	sumFn      func(ctx context.Context, id int64) (decimal.Decimal, error)
	typesFn    func(ctx context.Context, txType string) []int64
}

func (s *transactionServiceStub) CreateTransaction(ctx context.Context, input usecase.CreateTransactionInput) (*domain.TransactionView, error) {
	return s.createFn(ctx, input)
}

func (s *transactionServiceStub) GetTransaction(ctx context.Context, id int64) (*domain.TransactionView, error) {
	return s.getFn(ctx, id)
}

func (s *transactionServiceStub) RollbackTransaction(ctx context.Context, id int64) (*domain.TransactionView, error) {
	return s.rollbackFn(ctx, id)
}

func (s *transactionServiceStub) GetSum(ctx context.Context, id int64) (decimal.Decimal, error) {
	return s.sumFn(ctx, id)
}

func (s *transactionServiceStub) ListIDsByType(ctx context.Context, txType string) []int64 {
	return s.typesFn(ctx, txType)
}

func newTransactionRouter(svc TransactionService) http.Handler {
	h := NewTransactionHandler(svc)
	r := chi.NewRouter()
	r.Put("/transactions/{id}", h.Put)
	r.Get("/transactions/{id}", h.Get)
	r.Delete("/transactions/{id}", h.Rollback)
	r.Get("/transactions/sum/{id}", h.Sum)
	r.Get("/transactions/types/{type}", h.ListByType)
	return r
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTransactionHandler_Put_Success(t *testing.T) {
	var captured usecase.CreateTransactionInput
	router := newTransactionRouter(&transactionServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.TransactionView, error) {
			captured = input
			return &domain.TransactionView{ID: input.ID, Amount: input.Amount, Type: input.Type, ParentID: input.ParentID, Active: true}, nil
		},
	})

	rec := serve(router, http.MethodPut, "/transactions/2", `{"amount":"50.00","type":"Shopping","parent_id":1}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.ID != 2 || captured.ParentID == nil || *captured.ParentID != 1 || !captured.Amount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != 2 || resp.Amount != "50.00" || !resp.Active {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestTransactionHandler_Put_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		svcErr   error
		expected int
	}{
		{name: "non-numeric id", path: "/transactions/abc", body: `{"amount":"1","type":"a"}`, expected: http.StatusBadRequest},
		{name: "malformed json", path: "/transactions/1", body: `{`, expected: http.StatusBadRequest},
		{name: "missing amount", path: "/transactions/1", body: `{"type":"a"}`, expected: http.StatusBadRequest},
		{name: "type too long", path: "/transactions/1", body: `{"amount":"1","type":"abcdefghijklmnopqrstu"}`, expected: http.StatusBadRequest},
		{name: "duplicate", path: "/transactions/1", body: `{"amount":"1","type":"a"}`, svcErr: domain.ErrAlreadyCreated, expected: http.StatusConflict},
		{name: "parent missing", path: "/transactions/1", body: `{"amount":"1","type":"a","parent_id":9}`, svcErr: domain.ErrParentNotFound, expected: http.StatusNotFound},
		{name: "bad precision", path: "/transactions/1", body: `{"amount":"1.001","type":"a"}`, svcErr: domain.ErrInvalidAmountPrecision, expected: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTransactionRouter(&transactionServiceStub{
				createFn: func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.TransactionView, error) {
					if tt.svcErr == nil {
						t.Fatalf("service should not be called")
					}
					return nil, fmt.Errorf("%w: id %d", tt.svcErr, input.ID)
				},
			})

			rec := serve(router, http.MethodPut, tt.path, tt.body)
			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d: %s", tt.expected, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTransactionHandler_Get(t *testing.T) {
	router := newTransactionRouter(&transactionServiceStub{
		getFn: func(ctx context.Context, id int64) (*domain.TransactionView, error) {
			if id != 1 {
				return nil, domain.ErrNotFound
			}
			return &domain.TransactionView{
				ID: 1, Amount: decimal.NewFromInt(100), Type: "Shopping", Active: true,
				Children: []*domain.TransactionView{{ID: 2, Amount: decimal.NewFromInt(50), Type: "Shopping", Active: true}},
			}, nil
		},
	})

	rec := serve(router, http.MethodGet, "/transactions/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp dto.TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Children) != 1 || resp.Children[0].ID != 2 {
		t.Fatalf("expected nested child, got %+v", resp)
	}

	if rec := serve(router, http.MethodGet, "/transactions/5", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTransactionHandler_Rollback(t *testing.T) {
	router := newTransactionRouter(&transactionServiceStub{
		rollbackFn: func(ctx context.Context, id int64) (*domain.TransactionView, error) {
			if id == 2 {
				return nil, domain.ErrAlreadyInactive
			}
			return &domain.TransactionView{ID: id, Amount: decimal.NewFromInt(1), Type: "a"}, nil
		},
	})

	rec := serve(router, http.MethodDelete, "/transactions/1", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"active":false`) {
		t.Fatalf("expected 200 with inactive tree, got %d: %s", rec.Code, rec.Body.String())
	}

	if rec := serve(router, http.MethodDelete, "/transactions/2", ""); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestTransactionHandler_Sum(t *testing.T) {
	router := newTransactionRouter(&transactionServiceStub{
		sumFn: func(ctx context.Context, id int64) (decimal.Decimal, error) {
			if id != 1 {
				return decimal.Zero, domain.ErrNotFound
			}
			return decimal.NewFromInt(150), nil
		},
	})

	rec := serve(router, http.MethodGet, "/transactions/sum/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"sum":"150.00"}` {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	if rec := serve(router, http.MethodGet, "/transactions/sum/3", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTransactionHandler_ListByType(t *testing.T) {
	router := newTransactionRouter(&transactionServiceStub{
		typesFn: func(ctx context.Context, txType string) []int64 {
			if txType == "Shopping" {
				return []int64{1, 2}
			}
			return []int64{}
		},
	})

	rec := serve(router, http.MethodGet, "/transactions/types/Shopping", "")
	if strings.TrimSpace(rec.Body.String()) != `[1,2]` {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	rec = serve(router, http.MethodGet, "/transactions/types/Cars", "")
	if strings.TrimSpace(rec.Body.String()) != `[]` {
		t.Fatalf("expected empty list, got %s", rec.Body.String())
	}
}
