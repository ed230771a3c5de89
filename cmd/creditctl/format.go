package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/infyemailer-backoffice/internal/domain/credit"
	"github.com/infyemailer-backoffice/internal/domain/entity"
	"github.com/infyemailer-backoffice/internal/ledger"
)

func writeRow(w io.Writer, fields ...any) {
	parts := make([]string, len(fields))
	for i, f := range fields {
		switch v := f.(type) {
		case time.Time:
			parts[i] = v.UTC().Format(time.RFC3339)
		case *time.Time:
			if v != nil {
				parts[i] = v.UTC().Format(time.RFC3339)
			}
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	fmt.Fprintln(w, strings.Join(parts, "\t"))
}

func writeSystem(w io.Writer, s credit.SystemCredits) {
	writeRow(w, "system", s.Balance, s.UpdatedAt)
}

// writeClients prints id, name, balance, purchased, used and last credit change per client.
func writeClients(w io.Writer, clients ...entity.Client) {
	for _, c := range clients {
		writeRow(w, c.ID, c.Name, c.Credits, c.CreditsPurchased, c.CreditsUsed, c.CreditsLastUpdated)
	}
}

func writeEntries(w io.Writer, entries []credit.HistoryEntry) {
	for _, e := range entries {
		writeRow(w, e.ID, e.Scope, e.ClientID, e.Type, e.Amount, e.PreviousBalance, e.NewBalance, e.ActorID, e.CreatedAt, e.Reason)
	}
}

// writeResult prints the balances left by an operation followed by its entries.
func writeResult(w io.Writer, res *ledger.Result) {
	if res.System != nil {
		writeSystem(w, *res.System)
	}
	if res.Client != nil {
		writeRow(w, "client", res.Client.ID, res.Client.Credits)
	}
	writeEntries(w, res.Entries)
}
