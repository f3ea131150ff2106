// Package blobstore specifies the content-store contract spec.md §4.2
// describes as an external collaborator (key→bytes, presigned-URL
// issuance) and provides the canonical key layout plus a filesystem-backed
// implementation suitable for single-node deployments and tests.
package blobstore

import (
	"context"
	"io"
	"time"
)

// Store is the content-store contract. Implementations must be idempotent
// on Upload with identical bytes at the same key.
type Store interface {
	// Upload writes data under key. Re-uploading the same bytes under the
	// same key leaves the stored content unchanged.
	Upload(ctx context.Context, key string, data io.Reader, contentType string) error
	// PresignDownload issues an opaque, time-limited download URL.
	PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Exists reports whether key has been uploaded.
	Exists(ctx context.Context, key string) (bool, error)
}

// DefaultPresignTTL is the one-hour default validity spec.md §4.2 sets for
// presigned URLs.
const DefaultPresignTTL = time.Hour

// EntryTypePlural maps a registry_entry.entry_type to the plural path
// segment used in the key layout (spec.md §4.2: "{entry_type_plural}/...").
func EntryTypePlural(entryType string) string {
	switch entryType {
	case "data_source":
		return "data-sources"
	case "tool":
		return "tools"
	case "aggregate":
		return "aggregates"
	default:
		return entryType + "s"
	}
}

// Key builds the canonical blob key:
// "{entry_type_plural}/{org_slug}/{entry_slug}/{internal_version}/{filename}"
func Key(entryType, orgSlug, entrySlug, internalVersion, filename string) string {
	return EntryTypePlural(entryType) + "/" + orgSlug + "/" + entrySlug + "/" + internalVersion + "/" + filename
}
