package credit

import (
	"cmp"
	"slices"
	"time"
)

// HistoryFilter narrows a history query. Zero values disable a criterion.
type HistoryFilter struct {
	From  *time.Time      // inclusive
	To    *time.Time      // inclusive
	Type  TransactionType // empty matches every type
	Limit int             // <= 0 returns all matches
}

func (f HistoryFilter) Match(e HistoryEntry) bool {
	if f.From != nil && e.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && e.CreatedAt.After(*f.To) {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	return true
}

// Select returns the matching entries newest-first, capped to Limit.
// Entries created at the same instant are ordered by descending ID.
func Select(entries []HistoryEntry, f HistoryFilter) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}

	slices.SortStableFunc(out, func(a, b HistoryEntry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}
