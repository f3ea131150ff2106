package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEntry(t *testing.T, s *Store, spec, version, format string, fetchedAt time.Time) Entry {
	t.Helper()
	ctx := t.Context()
	path := filepath.Join(s.root, "sources", "seed-"+spec+version+format+".dat")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	e := Entry{Spec: spec, Version: version, Format: format, Filename: filepath.Base(path),
		SHA256: "deadbeef", SizeBytes: 4, Path: path, FetchedAt: fetchedAt}
	require.NoError(t, s.insert(ctx, e))
	return e
}

func TestPruneAllRemovesEverything(t *testing.T) {
	ctx := t.Context()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	e1 := seedEntry(t, s, "uniprot:p01308", "1.0", "fasta", time.Now())
	e2 := seedEntry(t, s, "genbank:nm-000207", "1.0", "genbank", time.Now())

	report, err := s.PruneAll(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Removed, 2)
	assert.Equal(t, int64(8), report.BytesFreed)

	assert.NoFileExists(t, e1.Path)
	assert.NoFileExists(t, e2.Path)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPruneOlderThanOnlyRemovesStale(t *testing.T) {
	ctx := t.Context()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	old := seedEntry(t, s, "uniprot:p01308", "1.0", "fasta", time.Now().Add(-48*time.Hour))
	fresh := seedEntry(t, s, "genbank:nm-000207", "1.0", "genbank", time.Now())

	report, err := s.PruneOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, report.Removed, 1)
	assert.Equal(t, old.Spec, report.Removed[0].Spec)

	assert.NoFileExists(t, old.Path)
	assert.FileExists(t, fresh.Path)
}

func TestPruneUnusedKeepsOnlyLockfileEntries(t *testing.T) {
	ctx := t.Context()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	kept := seedEntry(t, s, "uniprot:p01308", "1.0", "fasta", time.Now())
	orphan := seedEntry(t, s, "genbank:nm-000207", "1.0", "genbank", time.Now())

	keep := map[string]struct{}{
		LockfileKey(kept.Spec, kept.Version, kept.Format): {},
	}

	report, err := s.PruneUnused(ctx, keep)
	require.NoError(t, err)
	require.Len(t, report.Removed, 1)
	assert.Equal(t, orphan.Spec, report.Removed[0].Spec)

	assert.FileExists(t, kept.Path)
	assert.NoFileExists(t, orphan.Path)
}
