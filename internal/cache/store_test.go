package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesSchemaAndRoot(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	assert.DirExists(t, filepath.Join(dir, "sources"))
	assert.FileExists(t, filepath.Join(dir, "catalog.db"))
}

func TestTargetPathMatchesLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	got := s.TargetPath("uniprot", "p01308", "1.0", "fasta", "P01308.fasta")
	want := filepath.Join(dir, "sources", "uniprot", "p01308@1.0", "fasta", "P01308.fasta")
	assert.Equal(t, want, got)
}

func TestInsertLookupListRoundTrip(t *testing.T) {
	ctx := t.Context()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	e := Entry{Spec: "uniprot:p01308", Version: "1.0", Format: "fasta",
		Filename: "P01308.fasta", SHA256: "abc123", SizeBytes: 512, Path: "/tmp/P01308.fasta"}
	e.FetchedAt = e.FetchedAt.UTC()
	require.NoError(t, s.insert(ctx, e))

	got, ok, err := s.Lookup(ctx, "uniprot:p01308", "1.0", "fasta")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, e.SHA256, got.SHA256)
	assert.Equal(t, e.SizeBytes, got.SizeBytes)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestLookupMissingReturnsFalse(t *testing.T) {
	ctx := t.Context()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Lookup(ctx, "genbank:nm-000207", "1.0", "genbank")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInsertUpsertsOnConflict(t *testing.T) {
	ctx := t.Context()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	base := Entry{Spec: "uniprot:p01308", Version: "1.0", Format: "fasta", Filename: "P01308.fasta", SHA256: "first", SizeBytes: 100}
	require.NoError(t, s.insert(ctx, base))

	updated := base
	updated.SHA256 = "second"
	updated.SizeBytes = 200
	require.NoError(t, s.insert(ctx, updated))

	got, ok, err := s.Lookup(ctx, "uniprot:p01308", "1.0", "fasta")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", got.SHA256)
	assert.Equal(t, int64(200), got.SizeBytes)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
