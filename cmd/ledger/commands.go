// cmd/ledger/commands.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	app "bank-ledger/internal"
	"bank-ledger/internal/domain"
	"bank-ledger/internal/service"
	"bank-ledger/internal/util"
)

// cli carries the state shared by all subcommands.
type cli struct {
	out     io.Writer
	app     *app.Application
	ledger  service.LedgerService
	connect func(ctx context.Context) error // Sets ledger; skipped when ledger is already set
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "ledger",
		Short:         "Operate the bank account ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.ledger != nil || c.connect == nil || !needsLedger(cmd) {
				return nil
			}
			return c.connect(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "open <initial-balance>",
			Short: "Open a new active account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				initial, err := parseAmount(args[0])
				if err != nil {
					return err
				}
				account, err := c.ledger.CreateAccount(cmd.Context(), initial)
				if err != nil {
					return err
				}
				return c.printJSON(account)
			},
		},
		postCmd(c, "credit", "Add funds to an account", c.credit),
		postCmd(c, "debit", "Withdraw funds from an account", c.debit),
		&cobra.Command{
			Use:   "transfer <from-id> <to-id> <amount>",
			Short: "Move funds between two accounts",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				from, err := parseAccountID(args[0])
				if err != nil {
					return err
				}
				to, err := parseAccountID(args[1])
				if err != nil {
					return err
				}
				amount, err := parseAmount(args[2])
				if err != nil {
					return err
				}
				result, err := c.ledger.Transfer(cmd.Context(), from, to, amount)
				if err != nil {
					return err
				}
				return c.printJSON(result)
			},
		},
		&cobra.Command{
			Use:   "status <account-id> <active|inactive>",
			Short: "Activate or deactivate an account",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseAccountID(args[0])
				if err != nil {
					return err
				}
				status, ok := domain.ParseAccountStatus(args[1])
				if !ok {
					return fmt.Errorf("%q: %w", args[1], util.ErrInvalidStatus)
				}
				account, err := c.ledger.SetStatus(cmd.Context(), id, status)
				if err != nil {
					return err
				}
				return c.printJSON(account)
			},
		},
		&cobra.Command{
			Use:   "balance <account-id>",
			Short: "Show the current balance of an account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseAccountID(args[0])
				if err != nil {
					return err
				}
				balance, err := c.ledger.GetBalance(cmd.Context(), id)
				if err != nil {
					return err
				}
				return c.printJSON(map[string]interface{}{"account_id": id, "balance": balance})
			},
		},
		&cobra.Command{
			Use:   "history <account-id>",
			Short: "List the transactions of an account, oldest first",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseAccountID(args[0])
				if err != nil {
					return err
				}
				records, err := c.ledger.GetHistory(cmd.Context(), id)
				if err != nil {
					return err
				}
				c.renderHistory(records)
				return nil
			},
		},
		&cobra.Command{
			Use:   "accounts",
			Short: "List all accounts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				accounts, err := c.ledger.ListAccounts(cmd.Context())
				if err != nil {
					return err
				}
				c.renderAccounts(accounts)
				return nil
			},
		},
	)
	return root
}

// needsLedger reports whether cmd touches the ledger. Cobra's built-in help and
// shell completion commands must work without a database.
func needsLedger(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		switch cmd.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return true
}

type postFunc func(ctx context.Context, id domain.AccountID, amount decimal.Decimal) (*domain.Account, *domain.TransactionRecord, error)

func postCmd(c *cli, name, short string, post postFunc) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <account-id> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAccountID(args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			account, record, err := post(cmd.Context(), id, amount)
			if err != nil {
				return err
			}
			return c.printJSON(map[string]interface{}{"account": account, "transaction": record})
		},
	}
}

// The ledger is only known after PersistentPreRunE, so these defer the lookup.
func (c *cli) credit(ctx context.Context, id domain.AccountID, amount decimal.Decimal) (*domain.Account, *domain.TransactionRecord, error) {
	return c.ledger.Credit(ctx, id, amount)
}

func (c *cli) debit(ctx context.Context, id domain.AccountID, amount decimal.Decimal) (*domain.Account, *domain.TransactionRecord, error) {
	return c.ledger.Debit(ctx, id, amount)
}

func (c *cli) printJSON(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) renderHistory(records []domain.TransactionRecord) {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"ID", "Kind", "Amount", "Counterparty", "Created At"})
	for _, r := range records {
		counterparty := "-"
		if r.CounterpartyID != nil {
			counterparty = r.CounterpartyID.String()
		}
		table.Append([]string{
			fmt.Sprintf("%d", r.ID),
			string(r.Kind),
			r.Amount.StringFixed(domain.AmountScale),
			counterparty,
			r.CreatedAt.Format("2006-01-02 15:04:05.000"),
		})
	}
	table.Render()
}

func (c *cli) renderAccounts(accounts []domain.Account) {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"ID", "Balance", "Status", "Created At"})
	for _, a := range accounts {
		table.Append([]string{
			a.ID.String(),
			a.Balance.StringFixed(domain.AmountScale),
			string(a.Status),
			a.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
}

func parseAccountID(raw string) (domain.AccountID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid account id %q: %w", raw, util.ErrAccountNotFound)
	}
	return id, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, util.ErrInvalidAmount)
	}
	return amount, nil
}

// describe prefixes the message with a short label for the failure category.
func describe(err error) string {
	labels := []struct {
		target error
		label  string
	}{
		{util.ErrAccountNotFound, "account not found"},
		{util.ErrAccountInactive, "account inactive"},
		{util.ErrInvalidAmount, "invalid amount"},
		{util.ErrInsufficientFunds, "insufficient funds"},
		{util.ErrSameAccount, "same account"},
		{util.ErrInvalidStatus, "invalid status"},
		{util.ErrStorageFailure, "storage failure"},
		{context.Canceled, "cancelled"},
	}
	for _, l := range labels {
		if util.IsError(err, l.target) {
			return fmt.Sprintf("[%s] %v", l.label, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("[timeout] %v", err)
	}
	return err.Error()
}
