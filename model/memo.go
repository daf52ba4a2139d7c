package model

import "time"

// Memo is one saved command. Command is unique across the store.
type Memo struct {
	ID         int64
	Command    string
	CreatedAt  time.Time
	LastUsedAt time.Time
	UseCount   int
}

// Entry is a memo at a 1-based position in one ranked result set.
// Ordinals are recomputed per invocation and are not identifiers.
type Entry struct {
	Ordinal int
	Memo
}
