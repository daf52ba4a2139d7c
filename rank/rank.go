// Package rank orders memos for display and maps 1-based ordinals back
// to entries. Everything here is pure: callers pass a store snapshot.
package rank

import (
	"cmp"
	"fmt"
	"slices"

	"memo/model"
)

// DefaultLimit is the display window for plain listings.
const DefaultLimit = 10

// compare puts the most recently used memo first, then the most used,
// then the newest id.
func compare(a, b model.Memo) int {
	if c := b.LastUsedAt.Compare(a.LastUsedAt); c != 0 {
		return c
	}
	if c := cmp.Compare(b.UseCount, a.UseCount); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// Order returns a sorted copy of memos.
func Order(memos []model.Memo) []model.Memo {
	out := slices.Clone(memos)
	slices.SortFunc(out, compare)
	return out
}

// Number orders memos and assigns ordinals 1..N.
func Number(memos []model.Memo) []model.Entry {
	ordered := Order(memos)
	entries := make([]model.Entry, len(ordered))
	for i, m := range ordered {
		entries[i] = model.Entry{Ordinal: i + 1, Memo: m}
	}
	return entries
}

// Truncate returns the first limit entries. A limit of zero or less
// means no limit.
func Truncate(entries []model.Entry, limit int) []model.Entry {
	if limit <= 0 || len(entries) <= limit {
		return entries
	}
	return entries[:limit]
}

// At returns the memo at ordinal within the full ranked sequence.
func At(entries []model.Entry, ordinal int) (model.Memo, error) {
	if ordinal < 1 || ordinal > len(entries) {
		return model.Memo{}, fmt.Errorf("rank: %d not in 1..%d: %w", ordinal, len(entries), model.ErrInvalidOrdinal)
	}
	return entries[ordinal-1].Memo, nil
}
