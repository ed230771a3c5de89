package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/infyemailer-backoffice/internal/app"
	"github.com/infyemailer-backoffice/internal/domain/credit"
	"github.com/infyemailer-backoffice/internal/ledger"
)

var errMirrorDisabled = errors.New("history mirror is not enabled (set MONGO_ENABLED=true)")

func balanceCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Print the system balance, or one client's balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, _ := cmd.Flags().GetInt64("client")
			return withRuntime(cmd, open, func(rt *app.Runtime) error {
				l := rt.Storage.Ledger()
				if clientID == 0 {
					writeSystem(cmd.OutOrStdout(), l.SystemBalance())
					return nil
				}
				client, err := l.ClientBalance(clientID)
				if err != nil {
					return err
				}
				writeClients(cmd.OutOrStdout(), client)
				return nil
			})
		},
	}
	cmd.Flags().Int64("client", 0, "client id (omit for the system balance)")
	return cmd
}

func historyCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print history entries newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, _ := cmd.Flags().GetInt64("client")
			useMirror, _ := cmd.Flags().GetBool("mirror")
			filter, err := historyFilter(cmd)
			if err != nil {
				return err
			}

			return withRuntime(cmd, open, func(rt *app.Runtime) error {
				var entries []credit.HistoryEntry
				switch {
				case useMirror:
					if rt.Mirror == nil {
						return errMirrorDisabled
					}
					scope := credit.ScopeSystem
					if clientID != 0 {
						scope = credit.ScopeClient
					}
					entries, err = rt.Mirror.History(cmd.Context(), scope, clientID, filter)
					if err != nil {
						return err
					}
				case clientID != 0:
					if _, err := rt.Storage.Ledger().ClientBalance(clientID); err != nil {
						return err
					}
					entries = rt.Storage.Ledger().ClientHistory(clientID, filter)
				default:
					entries = rt.Storage.Ledger().SystemHistory(filter)
				}
				writeEntries(cmd.OutOrStdout(), entries)
				return nil
			})
		},
	}
	cmd.Flags().Int64("client", 0, "client id (omit for system history)")
	cmd.Flags().String("type", "", "only entries of this type: add, deduct, set or allocate")
	cmd.Flags().Int("limit", 0, "maximum number of entries (0 = all)")
	cmd.Flags().String("from", "", "earliest creation time, RFC 3339")
	cmd.Flags().String("to", "", "latest creation time, RFC 3339")
	cmd.Flags().Bool("mirror", false, "read from the MongoDB history mirror instead of the snapshots")
	return cmd
}

func historyFilter(cmd *cobra.Command) (credit.HistoryFilter, error) {
	var f credit.HistoryFilter
	txType, _ := cmd.Flags().GetString("type")
	if txType != "" {
		f.Type = credit.TransactionType(txType)
		if !f.Type.Valid() {
			return f, errors.New("unknown transaction type " + txType)
		}
	}

	f.Limit, _ = cmd.Flags().GetInt("limit")
	if f.Limit < 0 {
		return f, errors.New("limit must not be negative")
	}

	for flag, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		raw, _ := cmd.Flags().GetString(flag)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, err
		}
		*dst = &ts
	}
	return f, nil
}

func allocateCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Move credits from the system balance to a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, _ := cmd.Flags().GetInt64("client")
			amount, _ := cmd.Flags().GetInt64("amount")
			actorID, _ := cmd.Flags().GetInt64("actor")
			reason, _ := cmd.Flags().GetString("reason")

			return withRuntime(cmd, open, func(rt *app.Runtime) error {
				res, err := rt.Storage.Ledger().AllocateClientCreditsFromSystem(cmd.Context(), clientID, amount, actorID, reason)
				if err != nil {
					return err
				}
				writeResult(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
	cmd.Flags().Int64("client", 0, "client id")
	addChangeFlags(cmd)
	_ = cmd.MarkFlagRequired("client")
	return cmd
}

// changeCmd builds the add, deduct and set commands, which differ only in the ledger call.
func changeCmd(open opener, op, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   op,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, _ := cmd.Flags().GetInt64("client")
			amount, _ := cmd.Flags().GetInt64("amount")
			actorID, _ := cmd.Flags().GetInt64("actor")
			reason, _ := cmd.Flags().GetString("reason")

			return withRuntime(cmd, open, func(rt *app.Runtime) error {
				res, err := applyChange(cmd, rt.Storage.Ledger(), credit.TransactionType(op), clientID, amount, actorID, reason)
				if err != nil {
					return err
				}
				writeResult(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
	cmd.Flags().Int64("client", 0, "client id (omit to change the system balance)")
	addChangeFlags(cmd)
	return cmd
}

func applyChange(cmd *cobra.Command, l *ledger.Ledger, op credit.TransactionType, clientID, amount, actorID int64, reason string) (*ledger.Result, error) {
	ctx := cmd.Context()
	if clientID == 0 {
		switch op {
		case credit.TransactionAdd:
			return l.AddSystemCredits(ctx, amount, actorID, reason)
		case credit.TransactionDeduct:
			return l.DeductSystemCredits(ctx, amount, actorID, reason)
		default:
			return l.SetSystemCredits(ctx, amount, actorID, reason)
		}
	}
	switch op {
	case credit.TransactionAdd:
		return l.AddClientCredits(ctx, clientID, amount, actorID, reason)
	case credit.TransactionDeduct:
		return l.DeductClientCredits(ctx, clientID, amount, actorID, reason)
	default:
		return l.SetClientCredits(ctx, clientID, amount, actorID, reason)
	}
}

func addChangeFlags(cmd *cobra.Command) {
	cmd.Flags().Int64("amount", 0, "number of credits")
	cmd.Flags().Int64("actor", 0, "id of the user making the change")
	cmd.Flags().String("reason", "", "reason recorded in the history entry")
	_ = cmd.MarkFlagRequired("amount")
}

func clientsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "clients",
		Short: "List clients with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, open, func(rt *app.Runtime) error {
				writeClients(cmd.OutOrStdout(), rt.Storage.Clients().List()...)
				return nil
			})
		},
	}
}
