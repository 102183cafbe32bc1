package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "dump.ledger"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestEmptyLedger(t *testing.T) {
	l := openTestLedger(t)

	records, err := l.Records()
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, int64(-1), l.LastSize())
	assert.Equal(t, 0, l.LastGeneration())
}

func TestAppendAndReadBack(t *testing.T) {
	l := openTestLedger(t)

	now := time.Now().Truncate(time.Second)
	require.NoError(t, l.Append(Record{
		ID:         "one",
		Reason:     "CHECKPOINTING",
		Generation: 1,
		Path:       "world.db.#1#",
		StartedAt:  now,
		FinishedAt: now,
		Bytes:      2048,
		Success:    true,
	}))
	require.NoError(t, l.Append(Record{
		ID:         "two",
		Reason:     "CHECKPOINTING",
		Generation: 2,
		Path:       "world.db.#2#",
		Success:    false,
		Error:      "dbio failed: write: broken pipe",
	}))

	records, err := l.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "one", records[0].ID)
	assert.Equal(t, "two", records[1].ID)
	assert.True(t, records[0].Success)
	assert.False(t, records[1].Success)

	// Only successful dumps refresh the cached size and generation
	assert.Equal(t, int64(2048), l.LastSize())
	assert.Equal(t, 1, l.LastGeneration())
}
