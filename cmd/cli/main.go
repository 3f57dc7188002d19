package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/creditledger/internal/adapter/http/dto"
	"github.com/iho/creditledger/internal/adapter/http/middleware"
	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/infrastructure/auth"
)

type options struct {
	baseURL  string
	token    string
	timeout  time.Duration
	retryFor time.Duration
	asJSON   bool
}

func (o *options) client() *apiClient {
	return newAPIClient(o.baseURL, o.token, o.timeout, o.retryFor)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "creditledger-cli",
		Short:        "CreditLedger CLI tool",
		Long:         `A command line interface for interacting with the CreditLedger API.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("CREDITLEDGER_URL", "http://localhost:8080"), "Base URL of the CreditLedger API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("CREDITLEDGER_TOKEN"), "Bearer token")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().DurationVar(&opts.retryFor, "retry", 5*time.Second, "Retry transient failures for up to this long (0 disables)")
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print raw JSON responses")

	rootCmd.AddCommand(
		creditCmd(opts),
		debitCmd(opts),
		balanceCmd(opts),
		historyCmd(opts),
		creditsCmd(opts),
		ledgerCmd(opts),
		tokenCmd(),
	)

	return rootCmd
}

func creditCmd(opts *options) *cobra.Command {
	var (
		category       string
		currency       string
		idempotencyKey string
	)

	cmd := &cobra.Command{
		Use:   "credit <customer-id> <transaction-id> <amount>",
		Short: "Apply a credit to a customer",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[2])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[2], err)
			}

			req := dto.CreditRequest{
				TransactionID: args[1],
				CreditType:    category,
				Money:         dto.MoneyRequest{Amount: &amount, Currency: currency},
			}

			var resp dto.CreditResponse
			path := "/api/v1/customers/" + url.PathEscape(args[0]) + "/credit"
			if err := opts.client().do(cmd.Context(), "POST", path, req, idempotencyHeader(idempotencyKey), &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				return printJSON(out, resp)
			}
			if resp.Duplicate {
				fmt.Fprintf(out, "Transaction %s already applied\n", args[1])
			} else {
				fmt.Fprintf(out, "Credited %s %s (%s)\n", resp.Credit.Remaining.Amount, resp.Credit.Remaining.Currency, resp.Credit.CreditType)
			}
			printBalance(out, resp.Balance)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "type", string(domain.CategoryCash), "Credit type: GIFTCARD, PROMOTION or CASH")
	cmd.Flags().StringVar(&currency, "currency", "USD", "ISO 4217 currency code")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header")

	return cmd
}

func debitCmd(opts *options) *cobra.Command {
	var (
		currency       string
		idempotencyKey string
	)

	cmd := &cobra.Command{
		Use:   "debit <customer-id> <invoice-id> <amount>",
		Short: "Debit a customer",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[2])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[2], err)
			}

			req := dto.DebitRequest{
				InvoiceID: args[1],
				Money:     dto.MoneyRequest{Amount: &amount, Currency: currency},
			}

			var resp dto.DebitResponse
			path := "/api/v1/customers/" + url.PathEscape(args[0]) + "/debit"
			if err := opts.client().do(cmd.Context(), "POST", path, req, idempotencyHeader(idempotencyKey), &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				return printJSON(out, resp)
			}
			if resp.Duplicate {
				fmt.Fprintf(out, "Invoice %s already applied\n", args[1])
			} else {
				printDebitLineItems(out, resp.LineItems)
			}
			printBalance(out, resp.Balance)
			return nil
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "USD", "ISO 4217 currency code")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header")

	return cmd
}

func balanceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <customer-id>",
		Short: "Show a customer's balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.BalanceResponse
			path := "/api/v1/customers/" + url.PathEscape(args[0]) + "/balance"
			if err := opts.client().do(cmd.Context(), "GET", path, nil, nil, &resp); err != nil {
				return err
			}

			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			printBalance(cmd.OutOrStdout(), &resp)
			return nil
		},
	}
}

func historyCmd(opts *options) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "history <customer-id>",
		Short: "List a customer's debit history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp []dto.DebitLineItemResponse
			path := "/api/v1/customers/" + url.PathEscape(args[0]) + "/history" + pageQuery(limit, offset)
			if err := opts.client().do(cmd.Context(), "GET", path, nil, nil, &resp); err != nil {
				return err
			}

			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			printDebitLineItems(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries to show (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Entries to skip")

	return cmd
}

func creditsCmd(opts *options) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "credits <customer-id>",
		Short: "List a customer's credit history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp []dto.CreditLineItemResponse
			path := "/api/v1/customers/" + url.PathEscape(args[0]) + "/credits" + pageQuery(limit, offset)
			if err := opts.client().do(cmd.Context(), "GET", path, nil, nil, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				return printJSON(out, resp)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TRANSACTION\tTYPE\tINITIAL\tREMAINING\tINVOICES")
			for _, c := range resp {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\t%d\n",
					truncate(c.TransactionID, 28), c.CreditType, c.InitialAmount,
					c.Remaining.Amount, c.Remaining.Currency, len(c.AppliedInvoiceIDs))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries to show (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Entries to skip")

	return cmd
}

func ledgerCmd(opts *options) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ConsistencyReportResponse
			if err := opts.client().do(cmd.Context(), "GET", "/api/v1/ledger/consistency", nil, nil, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				if err := printJSON(out, resp); err != nil {
					return err
				}
			} else {
				status := "PASSED"
				if !resp.LedgerConsistent {
					status = "FAILED"
				}
				fmt.Fprintf(out, "Consistency check %s\n", status)
				fmt.Fprintf(out, "Ledgers: %d checked, %d consistent\n", resp.TotalLedgers, resp.ConsistentLedgers)
				for _, d := range resp.Discrepancies {
					fmt.Fprintf(out, "  %s: recorded %s, open %s, difference %s\n", d.CustomerID, d.RecordedTotal, d.OpenTotal, d.Difference)
				}
			}

			if !resp.LedgerConsistent {
				return fmt.Errorf("%d ledger(s) inconsistent", len(resp.Discrepancies))
			}
			return nil
		},
	}

	ledgerCmd.AddCommand(consistencyCmd)
	return ledgerCmd
}

func tokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Token operations",
	}

	var (
		secret     string
		subject    string
		role       string
		customerID string
		ttl        time.Duration
	)

	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a bearer token locally with the server's JWT secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("a JWT secret is required (--secret or JWT_SECRET)")
			}
			if subject == "" {
				subject = customerID
			}
			if subject == "" {
				return fmt.Errorf("--subject is required")
			}

			token, err := auth.NewJWTManager(secret, ttl).Generate(&domain.Principal{
				Subject:    subject,
				Role:       domain.Role(role),
				CustomerID: customerID,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	issueCmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "JWT signing secret")
	issueCmd.Flags().StringVar(&subject, "subject", "", "Token subject (defaults to --customer)")
	issueCmd.Flags().StringVar(&role, "role", string(domain.RoleOperator), "Role: admin, operator or customer")
	issueCmd.Flags().StringVar(&customerID, "customer", "", "Customer the token is scoped to (customer role)")
	issueCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")

	tokenCmd.AddCommand(issueCmd)
	return tokenCmd
}

func printBalance(w io.Writer, b *dto.BalanceResponse) {
	fmt.Fprintf(w, "Balance for %s: %s %s\n", b.CustomerID, b.Total.Amount, b.Total.Currency)
	for _, c := range b.Categories {
		fmt.Fprintf(w, "  %-10s %s (%d open)\n", c.CreditType, c.Total, len(c.Entries))
	}
}

func printDebitLineItems(w io.Writer, items []dto.DebitLineItemResponse) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INVOICE\tAMOUNT\tSOURCE\tTYPE")
	for _, d := range items {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n",
			truncate(d.InvoiceID, 28), d.Money.Amount, d.Money.Currency,
			truncate(d.SourceTransactionID, 28), d.SourceCreditType)
	}
	tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func pageQuery(limit, offset int) string {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func idempotencyHeader(key string) map[string]string {
	if key == "" {
		return nil
	}
	return map[string]string{middleware.IdempotencyKeyHeader: key}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
