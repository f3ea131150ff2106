package pull

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/cache"
	"github.com/bdp-project/bdp/internal/journal"
	"github.com/bdp-project/bdp/internal/resolve"
)

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func newTestOrchestrator(t *testing.T, resolveURL URLResolver) (*Orchestrator, *cache.Store) {
	t.Helper()
	store, err := cache.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &Orchestrator{
		Cache: store, Journal: journal.Open(store.DB()), MachineID: "test-host", ResolveURL: resolveURL,
	}, store
}

func fixedContentFetcher(content, sha string) URLResolver {
	return func(ctx context.Context, entry resolve.LockEntry) (cache.Fetcher, error) {
		return func(ctx context.Context, req cache.FetchRequest) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		}, nil
	}
}

func TestPullSucceedsAndRecordsInstallEvent(t *testing.T) {
	ctx := t.Context()
	content := ">P01308\nMASS\n"
	sha := sha256Hex(content)

	o, _ := newTestOrchestrator(t, fixedContentFetcher(content, sha))
	lock := resolve.Lockfile{Sources: []resolve.LockEntry{
		{Spec: "uniprot:p01308", InternalVersion: "1.0", FileFormat: "fasta", Filename: "P01308.fasta", SHA256: sha},
	}}

	report, err := o.Pull(ctx, lock)
	require.NoError(t, err)
	require.Len(t, report.Statuses, 1)
	assert.NoError(t, report.Statuses[0].Err)
	assert.False(t, report.Failed())

	entries, err := o.Journal.List(ctx)
	require.NoError(t, err)
	var actions []string
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, "resolve")
	assert.Contains(t, actions, "fetch:start")
	assert.Contains(t, actions, "fetch:complete")
	assert.Contains(t, actions, "verify:ok")
	assert.Contains(t, actions, "install")
}

func TestPullContinuesPastPartialFailure(t *testing.T) {
	ctx := t.Context()
	good := ">P01308\nMASS\n"
	goodSHA := sha256Hex(good)

	resolveURL := func(ctx context.Context, entry resolve.LockEntry) (cache.Fetcher, error) {
		if entry.Spec == "genbank:broken" {
			return nil, bdperr.New(bdperr.KindNetworkError, "upstream unreachable")
		}
		return func(ctx context.Context, req cache.FetchRequest) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(good)), nil
		}, nil
	}

	o, _ := newTestOrchestrator(t, resolveURL)
	lock := resolve.Lockfile{Sources: []resolve.LockEntry{
		{Spec: "uniprot:p01308", InternalVersion: "1.0", FileFormat: "fasta", Filename: "P01308.fasta", SHA256: goodSHA},
		{Spec: "genbank:broken", InternalVersion: "1.0", FileFormat: "genbank", Filename: "broken.gb", SHA256: "whatever"},
	}}

	report, err := o.Pull(ctx, lock)
	require.NoError(t, err)
	require.Len(t, report.Statuses, 2)
	assert.True(t, report.Failed())

	byFailed := map[bool]int{}
	for _, s := range report.Statuses {
		byFailed[s.Err != nil]++
	}
	assert.Equal(t, 1, byFailed[true])
	assert.Equal(t, 1, byFailed[false])
}

func TestPullIdempotentReRunEmitsNoNewCacheFiles(t *testing.T) {
	ctx := t.Context()
	content := ">P01308\nMASS\n"
	sha := sha256Hex(content)

	o, store := newTestOrchestrator(t, fixedContentFetcher(content, sha))
	lock := resolve.Lockfile{Sources: []resolve.LockEntry{
		{Spec: "uniprot:p01308", InternalVersion: "1.0", FileFormat: "fasta", Filename: "P01308.fasta", SHA256: sha},
	}}

	_, err := o.Pull(ctx, lock)
	require.NoError(t, err)
	before, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, before, 1)

	_, err = o.Pull(ctx, lock)
	require.NoError(t, err)
	after, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, before[0].Path, after[0].Path)
}
