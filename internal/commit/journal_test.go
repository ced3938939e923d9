package commit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalRoundTrip(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	j, err := OpenJournal("/work", "/final")
	require.NoError(t, err)

	assert.False(t, j.IsReassembled("a/f", 20))
	require.NoError(t, j.MarkReassembled("a/f", 20))
	assert.True(t, j.IsReassembled("a/f", 20))

	// A size mismatch means the file changed since the prior attempt.
	assert.False(t, j.IsReassembled("a/f", 21))
	assert.False(t, j.IsReassembled("a/g", 20))

	require.NoError(t, j.Close())
}

func TestJournalPersistsAcrossReopen(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	j, err := OpenJournal("/work", "/final")
	require.NoError(t, err)
	require.NoError(t, j.MarkReassembled("a/f", 20))
	require.NoError(t, j.Close())

	j2, err := OpenJournal("/work", "/final")
	require.NoError(t, err)
	defer j2.Close()
	assert.True(t, j2.IsReassembled("a/f", 20))
}

func TestJournalRemove(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	j, err := OpenJournal("/work", "/final")
	require.NoError(t, err)
	require.NoError(t, j.Close())
	require.NoError(t, j.Remove())
	assert.NoFileExists(t, j.Path())
}

func TestJournalDistinctJobs(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	j1, err := OpenJournal("/work", "/final")
	require.NoError(t, err)
	defer j1.Close()
	j2, err := OpenJournal("/other-work", "/other-final")
	require.NoError(t, err)
	defer j2.Close()

	// Journals are keyed by the work/final pair.
	assert.NotEqual(t, j1.Path(), j2.Path())
	require.NoError(t, j1.MarkReassembled("a/f", 20))
	assert.False(t, j2.IsReassembled("a/f", 20))
}
