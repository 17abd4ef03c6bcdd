package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpAdapter "github.com/iho/txledger/internal/adapter/http"
	"github.com/iho/txledger/internal/adapter/http/dto"
	"github.com/iho/txledger/internal/adapter/http/handler"
	"github.com/iho/txledger/internal/adapter/repository/memory"
	"github.com/iho/txledger/internal/domain"
	"github.com/iho/txledger/internal/infrastructure/auth"
	"github.com/iho/txledger/internal/usecase"
)

func newTestServer(t *testing.T, verifier *auth.JWTManager) *httptest.Server {
	t.Helper()

	store := memory.NewTransactionStore()
	cfg := httpAdapter.RouterConfig{
		TransactionHandler: handler.NewTransactionHandler(
			usecase.NewTransactionUseCase(store, nil, nil, nil, zerolog.Nop()),
		),
		LedgerHandler: handler.NewLedgerHandler(usecase.NewLedgerUseCase(store)),
		HealthHandler: handler.NewHealthHandler(nil),
		Logger:        zerolog.Nop(),
	}
	if verifier != nil {
		cfg.TokenVerifier = verifier
	}

	srv := httptest.NewServer(httpAdapter.NewRouter(cfg))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, srv *httptest.Server, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--url", srv.URL}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "longer...", truncate("longerstring", 6))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestTransactionCommands(t *testing.T) {
	srv := newTestServer(t, nil)

	out, _, err := execute(t, srv, "tx", "create", "10", "--amount", "5000", "--type", "cars")
	require.NoError(t, err)
	var created dto.TransactionResponse
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, int64(10), created.ID)
	assert.Equal(t, "5000.00", created.Amount)

	_, _, err = execute(t, srv, "tx", "create", "11", "--amount", "10000.5", "--type", "shopping", "--parent", "10")
	require.NoError(t, err)

	_, _, err = execute(t, srv, "tx", "create", "12", "--amount", "10", "--type", "shopping", "--parent", "11")
	require.NoError(t, err)

	out, _, err = execute(t, srv, "tx", "sum", "10")
	require.NoError(t, err)
	assert.Equal(t, "15010.50\n", out)

	out, _, err = execute(t, srv, "tx", "types", "shopping")
	require.NoError(t, err)
	assert.JSONEq(t, `[11,12]`, out)

	out, _, err = execute(t, srv, "tx", "get", "10")
	require.NoError(t, err)
	var tree dto.TransactionResponse
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	require.Len(t, tree.Children, 1)
	assert.Equal(t, int64(11), tree.Children[0].ID)

	out, _, err = execute(t, srv, "tx", "rollback", "11")
	require.NoError(t, err)
	var rolled dto.TransactionResponse
	require.NoError(t, json.Unmarshal([]byte(out), &rolled))
	assert.False(t, rolled.Active)
	require.Len(t, rolled.Children, 1)
	assert.False(t, rolled.Children[0].Active)

	out, _, err = execute(t, srv, "tx", "sum", "10")
	require.NoError(t, err)
	assert.Equal(t, "5000.00\n", out)
}

func TestTransactionCommands_Errors(t *testing.T) {
	srv := newTestServer(t, nil)

	_, _, err := execute(t, srv, "tx", "create", "1", "--amount", "1", "--type", "a")
	require.NoError(t, err)

	tests := []struct {
		name   string
		args   []string
		status int
	}{
		{"duplicate id", []string{"tx", "create", "1", "--amount", "1", "--type", "a"}, http.StatusConflict},
		{"missing parent", []string{"tx", "create", "2", "--amount", "1", "--type", "a", "--parent", "42"}, http.StatusNotFound},
		{"bad precision", []string{"tx", "create", "2", "--amount", "1.234", "--type", "a"}, http.StatusBadRequest},
		{"unknown id", []string{"tx", "get", "42"}, http.StatusNotFound},
		{"unknown sum", []string{"tx", "sum", "42"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := execute(t, srv, tt.args...)
			require.Error(t, err)

			var apiErr *apiError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Contains(t, stderr, "Error:")
		})
	}
}

func TestTransactionCommands_InvalidArgs(t *testing.T) {
	srv := newTestServer(t, nil)

	_, _, err := execute(t, srv, "tx", "get", "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, _, err = execute(t, srv, "tx", "create", "1", "--type", "a")
	assert.Error(t, err)

	_, _, err = execute(t, srv, "tx", "get")
	assert.Error(t, err)
}

func TestLedgerCommands(t *testing.T) {
	srv := newTestServer(t, nil)

	_, _, err := execute(t, srv, "tx", "create", "1", "--amount", "2.50", "--type", "a")
	require.NoError(t, err)

	out, _, err := execute(t, srv, "ledger", "consistency")
	require.NoError(t, err)
	assert.Contains(t, out, "Consistency check PASSED (1 transactions checked)")

	out, _, err = execute(t, srv, "ledger", "stats")
	require.NoError(t, err)
	var stats dto.StatsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, "2.50", stats.ActiveSum)
}

func TestLedgerConsistency_Failed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(dto.ConsistencyResponse{
			Status:     "inconsistent",
			Checked:    3,
			Violations: []string{"transaction 2: active under inactive parent 1"},
		})
	}))
	defer srv.Close()

	out, _, err := execute(t, srv, "ledger", "consistency")
	assert.ErrorIs(t, err, errConsistencyFailed)
	assert.Contains(t, out, "Consistency check FAILED (3 transactions checked)")
	assert.Contains(t, out, "active under inactive parent")
}

func TestDecodeError_NonJSONBody(t *testing.T) {
	err := decodeError(http.StatusBadGateway, []byte(strings.Repeat("x", 300)))

	var apiErr *apiError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Bad Gateway", apiErr.Code)
	assert.Len(t, apiErr.Message, maxErrorBody+3)
}

func TestTokenCommand_AuthenticatesAgainstServer(t *testing.T) {
	manager := auth.NewJWTManager("s3cret", time.Hour)
	srv := newTestServer(t, manager)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--secret", "s3cret", "--subject", "alice", "--role", "operator"})
	require.NoError(t, cmd.Execute())

	token := strings.TrimSpace(out.String())
	claims, err := manager.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOperator, claims.Role)

	_, _, err = execute(t, srv, "tx", "create", "1", "--amount", "1", "--type", "a")
	var apiErr *apiError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	_, _, err = execute(t, srv, "--token", token, "tx", "create", "1", "--amount", "1", "--type", "a")
	assert.NoError(t, err)
}

func TestTokenCommand_RejectsInvalidRole(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"token", "--secret", "s", "--subject", "bob", "--role", "root"})

	assert.ErrorIs(t, cmd.Execute(), domain.ErrInvalidToken)
}

func TestParseIDArg(t *testing.T) {
	id, err := parseIDArg("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	id, err = parseIDArg("4x")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
	assert.Zero(t, id)
}
