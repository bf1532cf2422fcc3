package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	baseURL string
	timeout time.Duration
}

func (o *rootOptions) client() *apiClient {
	return newAPIClient(o.baseURL, o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "bankledger-cli",
		Short:         "Bank ledger CLI tool",
		Long:          `A command line interface for interacting with the bank ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", defaultBaseURL, "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "Request timeout")

	rootCmd.AddCommand(
		accountsCmd(opts),
		depositCmd(opts),
		withdrawCmd(opts),
		transferCmd(opts),
		ledgerCmd(opts),
	)

	return rootCmd
}

func accountsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	var initialBalance string
	createCmd := &cobra.Command{
		Use:   "create <holder-name>",
		Short: "Open a new account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, err := parseAmount(initialBalance)
			if err != nil {
				return err
			}

			body := map[string]string{
				"holder_name":     args[0],
				"initial_balance": balance.String(),
			}
			return call(cmd, opts, http.MethodPost, "/api/v1/accounts", body)
		},
	}
	createCmd.Flags().StringVar(&initialBalance, "initial-balance", "100", "Opening balance")

	getCmd := &cobra.Command{
		Use:   "get <account-id>",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodGet, "/api/v1/accounts/"+url.PathEscape(args[0]), nil)
		},
	}

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				q.Set("offset", strconv.Itoa(offset))
			}

			path := "/api/v1/accounts"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}
			return call(cmd, opts, http.MethodGet, path, nil)
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of accounts (0 lists all)")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Number of accounts to skip")

	cmd.AddCommand(createCmd, getCmd, listCmd)
	return cmd
}

func depositCmd(opts *rootOptions) *cobra.Command {
	return balanceChangeCmd(opts, "deposit", "Credit an account")
}

func withdrawCmd(opts *rootOptions) *cobra.Command {
	return balanceChangeCmd(opts, "withdraw", "Debit an account")
}

func balanceChangeCmd(opts *rootOptions, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <account-id> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			path := "/api/v1/accounts/" + url.PathEscape(args[0]) + "/" + action
			return call(cmd, opts, http.MethodPost, path, map[string]string{"amount": amount.String()})
		},
	}
}

func transferCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <from-account-id> <to-account-id> <amount>",
		Short: "Move funds between two accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}

			body := map[string]string{
				"from_account_id": args[0],
				"to_account_id":   args[1],
				"amount":          amount.String(),
			}
			return call(cmd, opts, http.MethodPost, "/api/v1/transfers", body)
		},
	}
}

func ledgerCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the number of accounts and the total balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodGet, "/api/v1/ledger/summary", nil)
		},
	}

	cmd.AddCommand(summaryCmd)
	return cmd
}

func call(cmd *cobra.Command, opts *rootOptions, method, path string, body any) error {
	raw, err := opts.client().do(cmd.Context(), method, path, body)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), raw)
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

func printJSON(w io.Writer, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, werr := fmt.Fprintln(w, string(raw))
		return werr
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}
