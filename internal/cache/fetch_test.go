package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reqFor(content string) (FetchRequest, string) {
	sum := sha256.Sum256([]byte(content))
	hexSum := hex.EncodeToString(sum[:])
	return FetchRequest{
		Spec: "uniprot:p01308", InternalVersion: "1.0", Org: "uniprot", Name: "p01308",
		Format: "fasta", Filename: "P01308.fasta", ExpectedSHA256: hexSum,
	}, hexSum
}

func TestEnsureFetchesAndCatalogs(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	req, sum := reqFor(">P01308 test sequence\nMASS\n")
	var calls atomic.Int64
	fetch := func(ctx context.Context, req FetchRequest) (io.ReadCloser, error) {
		calls.Add(1)
		return io.NopCloser(strings.NewReader(">P01308 test sequence\nMASS\n")), nil
	}

	entry, err := s.Ensure(ctx, req, fetch)
	require.NoError(t, err)
	assert.Equal(t, sum, entry.SHA256)
	assert.Equal(t, int64(1), calls.Load())
	assert.FileExists(t, entry.Path)

	// Second call with the same expected hash is satisfied from the catalog.
	entry2, err := s.Ensure(ctx, req, fetch)
	require.NoError(t, err)
	assert.Equal(t, entry.Path, entry2.Path)
	assert.Equal(t, int64(1), calls.Load(), "cache hit must not re-fetch")
}

func TestEnsureChecksumMismatchCleansUpTempFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	req, _ := reqFor("expected content")
	fetch := func(ctx context.Context, req FetchRequest) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("different content entirely")), nil
	}

	_, err = s.Ensure(ctx, req, fetch)
	require.Error(t, err)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries, "a checksum mismatch must not catalog the entry")

	matches, err := filepath.Glob(filepath.Join(dir, "sources", "uniprot", "p01308@1.0", "fasta", "*.tmp.*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temp file must be removed on checksum mismatch")
}
