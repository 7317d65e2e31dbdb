package bill

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentLedger_MarkAndHas(t *testing.T) {
	l := SentLedger{}

	assert.False(t, l.Has("2026-01-15", 3))

	l.Mark("2026-01-15", 3)
	assert.True(t, l.Has("2026-01-15", 3))
	assert.False(t, l.Has("2026-01-15", 0))
	assert.False(t, l.Has("2026-02-15", 3))

	// Re-marking stays monotonic: no duplicate entries.
	l.Mark("2026-01-15", 3)
	assert.Equal(t, []int{3}, l["2026-01-15"])
}

func TestSentLedger_Prune(t *testing.T) {
	l := SentLedger{
		"2025-10-01": {3},
		"2026-01-14": {0},
		"2026-01-15": {3, 0},
		"not-a-date": {1},
	}

	removed := l.Prune(time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 3, removed)
	assert.Equal(t, SentLedger{"2026-01-15": {3, 0}}, l)
}

func TestSentLedger_ValueScanRoundTrip(t *testing.T) {
	l := SentLedger{"2026-01-15": {3, 1, 0}}

	v, err := l.Value()
	require.NoError(t, err)

	var out SentLedger
	require.NoError(t, out.Scan(v))
	assert.Equal(t, l, out)
}

func TestSentLedger_ScanNilAndEmpty(t *testing.T) {
	var l SentLedger
	require.NoError(t, l.Scan(nil))
	assert.NotNil(t, l)
	assert.Empty(t, l)

	var fromEmpty SentLedger
	require.NoError(t, fromEmpty.Scan([]byte{}))
	assert.NotNil(t, fromEmpty)
}

func TestSentLedger_NilValueIsEmptyObject(t *testing.T) {
	var l SentLedger
	v, err := l.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)
}
