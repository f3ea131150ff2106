package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdp-project/bdp/internal/cache"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	s, err := cache.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return Open(s.DB())
}

func TestAppendChainsHashesInOrder(t *testing.T) {
	ctx := t.Context()
	j := openTestJournal(t)

	e1, err := j.Append(ctx, "host-1", "resolve", "uniprot:p01308", nil)
	require.NoError(t, err)
	assert.Equal(t, zeroHash, e1.PrevHash)
	assert.NotEmpty(t, e1.Hash)

	e2, err := j.Append(ctx, "host-1", "fetch:start", "uniprot:p01308", map[string]any{"attempt": float64(1)})
	require.NoError(t, err)
	assert.Equal(t, e1.Hash, e2.PrevHash)
	assert.NotEqual(t, e1.Hash, e2.Hash)
}

func TestVerifyDetectsIntactChain(t *testing.T) {
	ctx := t.Context()
	j := openTestJournal(t)

	for i := 0; i < 5; i++ {
		_, err := j.Append(ctx, "host-1", "install", "genbank:nm-000207", map[string]any{"i": float64(i)})
		require.NoError(t, err)
	}

	result, err := j.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, 5, result.Entries)
	assert.Zero(t, result.FirstMismatch)
}

func TestVerifyIdentifiesFirstDivergentSeq(t *testing.T) {
	ctx := t.Context()
	j := openTestJournal(t)

	for i := 0; i < 3; i++ {
		_, err := j.Append(ctx, "host-1", "install", "genbank:nm-000207", nil)
		require.NoError(t, err)
	}

	_, err := j.db.ExecContext(ctx, `UPDATE audit_journal SET target = 'tampered' WHERE seq = 2`)
	require.NoError(t, err)

	result, err := j.Verify(ctx)
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, int64(2), result.FirstMismatch)
}

func TestListReturnsEntriesInSeqOrder(t *testing.T) {
	ctx := t.Context()
	j := openTestJournal(t)

	_, err := j.Append(ctx, "host-1", "resolve", "a", nil)
	require.NoError(t, err)
	_, err = j.Append(ctx, "host-1", "fetch:start", "a", nil)
	require.NoError(t, err)

	entries, err := j.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "resolve", entries[0].Action)
	assert.Equal(t, "fetch:start", entries[1].Action)
}
