package rank

import (
	"math/rand/v2"
	"testing"
	"time"

	"memo/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func memo(id int64, cmd string, lastUsed time.Duration, uses int) model.Memo {
	return model.Memo{
		ID:         id,
		Command:    cmd,
		CreatedAt:  base,
		LastUsedAt: base.Add(lastUsed),
		UseCount:   uses,
	}
}

func commands(entries []model.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Command
	}
	return out
}

func TestOrder_RecencyFirst(t *testing.T) {
	memos := []model.Memo{
		memo(1, "old", 1*time.Second, 9),
		memo(2, "new", 3*time.Second, 1),
		memo(3, "mid", 2*time.Second, 1),
	}

	got := Order(memos)
	assert.Equal(t, "new", got[0].Command)
	assert.Equal(t, "mid", got[1].Command)
	assert.Equal(t, "old", got[2].Command)

	// Input is untouched.
	assert.Equal(t, "old", memos[0].Command)
}

func TestOrder_TieBreaks(t *testing.T) {
	memos := []model.Memo{
		memo(1, "a", 0, 1),
		memo(2, "b", 0, 3),
		memo(3, "c", 0, 1),
		memo(4, "d", 0, 3),
	}

	got := Number(memos)
	assert.Equal(t, []string{"d", "b", "c", "a"}, commands(got))
}

func TestNumber_Ordinals(t *testing.T) {
	memos := []model.Memo{
		memo(1, "a", 1*time.Second, 1),
		memo(2, "b", 2*time.Second, 1),
	}

	got := Number(memos)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Ordinal)
	assert.Equal(t, "b", got[0].Command)
	assert.Equal(t, 2, got[1].Ordinal)
	assert.Equal(t, "a", got[1].Command)
}

func TestNumber_Deterministic(t *testing.T) {
	var memos []model.Memo
	for i := range 50 {
		memos = append(memos, memo(int64(i+1), string(rune('a'+i%26)), time.Duration(i%5)*time.Second, i%3+1))
	}

	want := Number(memos)
	for range 10 {
		shuffled := append([]model.Memo(nil), memos...)
		rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, Number(shuffled))
	}
}

func TestTruncate(t *testing.T) {
	var memos []model.Memo
	for i := range 15 {
		memos = append(memos, memo(int64(i+1), "c", time.Duration(i)*time.Second, 1))
	}
	entries := Number(memos)

	assert.Len(t, Truncate(entries, DefaultLimit), 10)
	assert.Len(t, Truncate(entries, 0), 15)
	assert.Len(t, Truncate(entries, -1), 15)
	assert.Len(t, Truncate(entries, 100), 15)
}

func TestAt(t *testing.T) {
	memos := []model.Memo{
		memo(1, "a", 1*time.Second, 1),
		memo(2, "b", 2*time.Second, 1),
		memo(3, "c", 3*time.Second, 1),
	}
	entries := Number(memos)

	for k := 1; k <= len(entries); k++ {
		m, err := At(entries, k)
		require.NoError(t, err)
		assert.Equal(t, entries[k-1].Memo, m)
	}

	_, err := At(entries, 0)
	assert.ErrorIs(t, err, model.ErrInvalidOrdinal)
	_, err = At(entries, len(entries)+1)
	assert.ErrorIs(t, err, model.ErrInvalidOrdinal)
	_, err = At(nil, 1)
	assert.ErrorIs(t, err, model.ErrInvalidOrdinal)
}

func TestAt_BeyondDisplayWindow(t *testing.T) {
	var memos []model.Memo
	for i := range 12 {
		memos = append(memos, memo(int64(i+1), string(rune('a'+i)), time.Duration(i)*time.Second, 1))
	}
	entries := Number(memos)

	m, err := At(entries, 12)
	require.NoError(t, err)
	assert.Equal(t, "a", m.Command)
}
