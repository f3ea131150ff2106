package manifest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdp-project/bdp/internal/resolve"
)

func TestWriteReadLockfileRoundTrips(t *testing.T) {
	lock := resolve.Lockfile{
		LockfileVersion: 1,
		GeneratedAt:     time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Sources: []resolve.LockEntry{
			{Spec: "uniprot:p01308@1.0-fasta", InternalVersion: "1.0", ExternalVersion: "2024_01",
				FileFormat: "fasta", Filename: "P01308.fasta", SHA256: "abc123", SizeBytes: 512},
		},
	}

	path := filepath.Join(t.TempDir(), "bdl.lock")
	require.NoError(t, WriteLockfile(path, lock))

	got, err := ReadLockfile(path)
	require.NoError(t, err)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, lock.Sources[0], got.Sources[0])
	assert.True(t, lock.GeneratedAt.Equal(got.GeneratedAt))
}

func TestWriteLockfileIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bdl.lock")

	require.NoError(t, WriteLockfile(path, resolve.Lockfile{LockfileVersion: 1, GeneratedAt: time.Now().UTC()}))

	entries, err := filepath.Glob(filepath.Join(dir, "*.tmp.*"))
	require.NoError(t, err)
	assert.Empty(t, entries, "no temp files should remain after a successful write")
}
