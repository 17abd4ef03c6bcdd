package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/txledger/internal/adapter/http/dto"
	"github.com/iho/txledger/internal/adapter/http/middleware"
	"github.com/iho/txledger/internal/domain"
	"github.com/iho/txledger/internal/infrastructure/auth"
)

const maxErrorBody = 200

// errConsistencyFailed makes the command exit non-zero after printing the report.
var errConsistencyFailed = errors.New("consistency check failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// client talks to the txledger HTTP API.
type client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
}

// apiError is a non-2xx response from the API.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("%s (status %d)", e.Code, e.Status)
}

func (c *client) do(ctx context.Context, method, path string, body any, idempotencyKey string, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if idempotencyKey != "" {
		req.Header.Set(middleware.IdempotencyKeyHeader, idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	// The consistency endpoint answers 409 with a full report.
	if resp.StatusCode >= 300 && !(resp.StatusCode == http.StatusConflict && isReport(raw)) {
		return decodeError(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

// isReport reports whether a 409 body is a consistency report rather than an
// error response.
func isReport(raw []byte) bool {
	var probe struct {
		Status string `json:"status"`
	}
	return json.Unmarshal(raw, &probe) == nil && probe.Status != ""
}

func decodeError(status int, raw []byte) error {
	var resp dto.ErrorResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Error == "" {
		return &apiError{Status: status, Code: http.StatusText(status), Message: truncate(string(raw), maxErrorBody)}
	}
	return &apiError{Status: status, Code: resp.Error, Message: resp.Message}
}

func newRootCmd() *cobra.Command {
	c := &client{http: &http.Client{}}

	rootCmd := &cobra.Command{
		Use:          "txledger-cli",
		Short:        "txledger CLI tool",
		Long:         `A command line interface for interacting with the txledger API.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&c.baseURL, "url", "http://localhost:8080", "Base URL of the txledger API")
	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&c.token, "token", "", "Bearer token for authenticated servers")

	rootCmd.AddCommand(newTxCmd(c), newLedgerCmd(c), newTokenCmd())
	return rootCmd
}

func newTxCmd(c *client) *cobra.Command {
	txCmd := &cobra.Command{
		Use:   "tx",
		Short: "Transaction operations",
	}

	var (
		amount         string
		txType         string
		parentID       int64
		idempotencyKey string
	)
	createCmd := &cobra.Command{
		Use:   "create <id>",
		Short: "Create a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			body := map[string]any{"amount": amount, "type": txType}
			if cmd.Flags().Changed("parent") {
				body["parent_id"] = parentID
			}

			var resp dto.TransactionResponse
			if err := c.do(cmd.Context(), http.MethodPut, txPath(id), body, idempotencyKey, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	createCmd.Flags().StringVar(&amount, "amount", "", "Transaction amount, at most two decimal places")
	createCmd.Flags().StringVar(&txType, "type", "", "Transaction type label")
	createCmd.Flags().Int64Var(&parentID, "parent", 0, "Parent transaction id")
	createCmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key for safe retries")
	_ = createCmd.MarkFlagRequired("amount")
	_ = createCmd.MarkFlagRequired("type")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a transaction and its descendants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.printTransaction(cmd, http.MethodGet, args[0])
		},
	}

	rollbackCmd := &cobra.Command{
		Use:   "rollback <id>",
		Short: "Roll back a transaction and its active descendants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.printTransaction(cmd, http.MethodDelete, args[0])
		},
	}

	sumCmd := &cobra.Command{
		Use:   "sum <id>",
		Short: "Sum the active amounts of a transaction subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			var resp dto.SumResponse
			if err := c.do(cmd.Context(), http.MethodGet, fmt.Sprintf("/api/v1/transactions/sum/%d", id), nil, "", &resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Sum)
			return nil
		},
	}

	typesCmd := &cobra.Command{
		Use:   "types <type>",
		Short: "List transaction ids with the given type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ids []int64
			path := "/api/v1/transactions/types/" + url.PathEscape(args[0])
			if err := c.do(cmd.Context(), http.MethodGet, path, nil, "", &ids); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ids)
		},
	}

	txCmd.AddCommand(createCmd, getCmd, rollbackCmd, sumCmd, typesCmd)
	return txCmd
}

func (c *client) printTransaction(cmd *cobra.Command, method, arg string) error {
	id, err := parseIDArg(arg)
	if err != nil {
		return err
	}

	var resp dto.TransactionResponse
	if err := c.do(cmd.Context(), method, txPath(id), nil, "", &resp); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

func newLedgerCmd(c *client) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ConsistencyResponse
			if err := c.do(cmd.Context(), http.MethodGet, "/api/v1/ledger/consistency", nil, "", &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !resp.Consistent {
				fmt.Fprintf(out, "Consistency check FAILED (%d transactions checked)\n", resp.Checked)
				for _, v := range resp.Violations {
					fmt.Fprintf(out, "  - %s\n", v)
				}
				return errConsistencyFailed
			}

			fmt.Fprintf(out, "Consistency check PASSED (%d transactions checked)\n", resp.Checked)
			return nil
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show ledger totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.StatsResponse
			if err := c.do(cmd.Context(), http.MethodGet, "/api/v1/ledger/stats", nil, "", &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	ledgerCmd.AddCommand(consistencyCmd, statsCmd)
	return ledgerCmd
}

func newTokenCmd() *cobra.Command {
	var (
		secret  string
		subject string
		role    string
		ttl     time.Duration
	)

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with the server secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.NewJWTManager(secret, ttl).Generate(subject, domain.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&secret, "secret", "", "JWT signing secret (JWT_SECRET of the server)")
	tokenCmd.Flags().StringVar(&subject, "subject", "", "Token subject")
	tokenCmd.Flags().StringVar(&role, "role", string(domain.RoleViewer), "Role: admin, operator or viewer")
	tokenCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("secret")
	_ = tokenCmd.MarkFlagRequired("subject")

	return tokenCmd
}

func parseIDArg(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidID, arg)
	}
	return id, nil
}

func txPath(id int64) string {
	return fmt.Sprintf("/api/v1/transactions/%d", id)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
