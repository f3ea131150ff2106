package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// FetchRequest describes one lockfile entry to materialize in the cache.
type FetchRequest struct {
	Spec            string
	InternalVersion string
	Org             string
	Name            string
	Format          string
	Filename        string
	ExpectedSHA256  string
	SizeBytes       int64
}

// Fetcher opens a reader for a FetchRequest's content. The real
// implementation streams from a presigned blob-store URL (C2); tests
// supply an in-memory Fetcher.
type Fetcher func(ctx context.Context, req FetchRequest) (io.ReadCloser, error)

// Ensure materializes req into the cache, coalescing concurrent callers
// for the same key onto a single download (spec.md §4.10). If the entry
// is already cataloged with a matching hash, fetch is not called at all.
func (s *Store) Ensure(ctx context.Context, req FetchRequest, fetch Fetcher) (Entry, error) {
	target := s.TargetPath(req.Org, req.Name, req.InternalVersion, req.Format, req.Filename)

	lock, err := newKeyLock(filepath.Join(s.root, ".locks"), target)
	if err != nil {
		return Entry{}, err
	}
	if err := lock.Acquire(ctx); err != nil {
		return Entry{}, err
	}
	defer lock.Release()

	if existing, ok, err := s.Lookup(ctx, req.Spec, req.InternalVersion, req.Format); err != nil {
		return Entry{}, err
	} else if ok && existing.SHA256 == req.ExpectedSHA256 {
		return existing, nil
	}

	body, err := fetch(ctx, req)
	if err != nil {
		return Entry{}, bdperr.Wrap(bdperr.KindNetworkError, err, "fetch cache entry")
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Entry{}, bdperr.Wrap(bdperr.KindInternal, err, "create cache entry directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".tmp.*")
	if err != nil {
		return Entry{}, bdperr.Wrap(bdperr.KindInternal, err, "create cache temp file")
	}
	tmpPath := tmp.Name()
	cleanTmp := true
	defer func() {
		_ = tmp.Close()
		if cleanTmp {
			_ = os.Remove(tmpPath)
		}
	}()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), body)
	if err != nil {
		return Entry{}, bdperr.Wrap(bdperr.KindNetworkError, err, "stream cache entry")
	}
	if err := tmp.Close(); err != nil {
		return Entry{}, bdperr.Wrap(bdperr.KindInternal, err, "close cache temp file")
	}

	got := hex.EncodeToString(h.Sum(nil))
	if req.ExpectedSHA256 != "" && got != req.ExpectedSHA256 {
		return Entry{}, bdperr.New(bdperr.KindChecksumMismatch, "downloaded file does not match expected sha256").
			WithField(req.Filename)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		return Entry{}, bdperr.Wrap(bdperr.KindInternal, err, "rename cache entry into place")
	}
	cleanTmp = false

	entry := Entry{
		Spec: req.Spec, Version: req.InternalVersion, Format: req.Format,
		Filename: req.Filename, SHA256: got, SizeBytes: n, Path: target, FetchedAt: time.Now().UTC(),
	}
	if err := s.insert(ctx, entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}
