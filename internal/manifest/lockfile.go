package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/resolve"
)

// LockfileVersion is the current `bdl.lock` schema version written to
// every generated lockfile.
const LockfileVersion = 1

// lockfileEntry is the JSON shape of one `sources` item in `bdl.lock`,
// per spec.md §4.9's grammar.
type lockfileEntry struct {
	Spec            string `json:"spec"`
	InternalVersion string `json:"internal_version"`
	ExternalVersion string `json:"external_version"`
	FileFormat      string `json:"file_format"`
	Filename        string `json:"filename"`
	SHA256          string `json:"sha256"`
	SizeBytes       int64  `json:"size_bytes"`
	DownloadURL     string `json:"download_url,omitempty"`
}

type lockfileDoc struct {
	LockfileVersion int             `json:"lockfile_version"`
	GeneratedAt     time.Time       `json:"generated_at"`
	Sources         []lockfileEntry `json:"sources"`
}

// WriteLockfile serializes a resolve.Lockfile to path atomically (temp
// file + rename), mirroring the teacher's internal/export.WriteManifest
// idiom.
func WriteLockfile(path string, lock resolve.Lockfile) error {
	doc := lockfileDoc{
		LockfileVersion: LockfileVersion,
		GeneratedAt:     lock.GeneratedAt,
		Sources:         make([]lockfileEntry, len(lock.Sources)),
	}
	for i, e := range lock.Sources {
		doc.Sources[i] = lockfileEntry{
			Spec: e.Spec, InternalVersion: e.InternalVersion, ExternalVersion: e.ExternalVersion,
			FileFormat: e.FileFormat, Filename: e.Filename, SHA256: e.SHA256,
			SizeBytes: e.SizeBytes, DownloadURL: e.DownloadURL,
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "marshal lockfile")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "create temp lockfile")
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "write lockfile")
	}
	if err := tmp.Close(); err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "close temp lockfile")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "rename lockfile into place")
	}
	return os.Chmod(path, 0o600)
}

// ReadLockfile parses a previously-written `bdl.lock`. It is authoritative
// for pulls and is regenerated only by an explicit resolve command, per
// spec.md §4.9.
func ReadLockfile(path string) (resolve.Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return resolve.Lockfile{}, bdperr.Wrap(bdperr.KindInternal, err, "read lockfile")
	}
	var doc lockfileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return resolve.Lockfile{}, bdperr.Wrap(bdperr.KindParseError, err, "parse lockfile")
	}

	lock := resolve.Lockfile{LockfileVersion: doc.LockfileVersion, GeneratedAt: doc.GeneratedAt}
	for _, e := range doc.Sources {
		lock.Sources = append(lock.Sources, resolve.LockEntry{
			Spec: e.Spec, InternalVersion: e.InternalVersion, ExternalVersion: e.ExternalVersion,
			FileFormat: e.FileFormat, Filename: e.Filename, SHA256: e.SHA256,
			SizeBytes: e.SizeBytes, DownloadURL: e.DownloadURL,
		})
	}
	return lock, nil
}
