// Package resolve implements manifest→lockfile resolution (spec.md §4.8):
// parse each spec, look up its entry and version, enumerate requested file
// formats, expand dependency edges recursively with cycle detection, and
// collect checksums/blob keys into a lockfile document.
//
// Grounded on the teacher's internal/resolver.Resolver shape (filter, score,
// sort over a candidate slice) generalized from "best LLM resource for a
// requirement" to "the one version a spec names, plus everything it
// transitively requires".
package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/blobstore"
	"github.com/bdp-project/bdp/internal/idver"
	"github.com/bdp-project/bdp/internal/regdb"
)

// ManifestEntry is one `bdp.yml` sources/tools list item.
type ManifestEntry struct {
	Spec string
}

// Manifest is the parsed `bdp.yml` document (spec.md §4.9's grammar, minus
// the unknown-key passthrough the manifest package owns on write-back).
type Manifest struct {
	Name    string
	Version string
	Sources []ManifestEntry
	Tools   []ManifestEntry
}

// LockEntry is one resolved file, the unit spec.md §4.8 says the lockfile
// lists "one entry per resolved file".
type LockEntry struct {
	Spec            string
	InternalVersion string
	ExternalVersion string
	FileFormat      string
	Filename        string
	SizeBytes       int64
	SHA256          string
	DownloadURL     string
}

// Lockfile is the resolved output, written by internal/manifest as `bdl.lock`.
type Lockfile struct {
	LockfileVersion int
	GeneratedAt     time.Time
	Sources         []LockEntry
}

// VersionConflictError reports a direct requirement and a transitive
// requirement on the same entry resolving to incompatible versions
// (spec.md §4.8: "Conflicts... fail with VersionConflict identifying both
// paths").
type VersionConflictError struct {
	OrgSlug, EntrySlug string
	PathA, VersionA    string
	PathB, VersionB    string
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict on %s:%s: %s resolves to %s, but %s resolves to %s",
		e.OrgSlug, e.EntrySlug, e.PathA, e.VersionA, e.PathB, e.VersionB)
}

// CycleError reports a dependency cycle discovered during expansion.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// UnknownOrganizationError reports a resolve spec naming an organization
// that isn't registered. spec.md §8 treats this as a caller error
// (Validation), not a registry lookup failure (NotFound).
type UnknownOrganizationError struct {
	OrgSlug string
}

func (e *UnknownOrganizationError) Error() string {
	return fmt.Sprintf("unknown organization '%s'", e.OrgSlug)
}

// Resolver carries the collaborators resolution needs: the registry for
// entry/version/dependency lookups, and the blob store for presigning
// download URLs.
type Resolver struct {
	Store *regdb.Store
	Blobs blobstore.Store
}

func New(store *regdb.Store, blobs blobstore.Store) *Resolver {
	return &Resolver{Store: store, Blobs: blobs}
}

// resolution tracks, per entry, the version + path that resolved it first,
// so a later conflicting resolution for the same entry can name both paths.
type resolution struct {
	internalVersion string
	path            string
}

type resolveState struct {
	resolved map[int64]resolution
	entries  []LockEntry
}

// Resolve walks every manifest spec (sources and tools together — spec.md
// §4.8 treats both lists the same way once parsed) and its transitive
// dependencies into a flat Lockfile.
func (r *Resolver) Resolve(ctx context.Context, manifest Manifest) (Lockfile, error) {
	state := &resolveState{resolved: make(map[int64]resolution)}

	all := append(append([]ManifestEntry{}, manifest.Sources...), manifest.Tools...)
	for _, entry := range all {
		spec, err := idver.ParseSpec(entry.Spec)
		if err != nil {
			return Lockfile{}, fmt.Errorf("resolve: parse spec %q: %w", entry.Spec, err)
		}
		if err := r.resolveOne(ctx, state, spec, []string{entry.Spec}); err != nil {
			return Lockfile{}, err
		}
	}

	return Lockfile{
		LockfileVersion: 1,
		GeneratedAt:     time.Now().UTC(),
		Sources:         state.entries,
	}, nil
}

func (r *Resolver) resolveOne(ctx context.Context, state *resolveState, spec idver.Spec, path []string) error {
	org, err := r.Store.GetOrganizationBySlug(ctx, spec.Org)
	if err != nil {
		if errors.Is(err, bdperr.ErrNotFound) {
			return &UnknownOrganizationError{OrgSlug: spec.Org}
		}
		return fmt.Errorf("resolve %s: %w", spec.String(), err)
	}
	entry, err := r.Store.GetEntry(ctx, org.ID, spec.Name)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", spec.String(), err)
	}

	for _, seen := range path[:len(path)-1] {
		if seen == spec.String() {
			return &CycleError{Path: append(append([]string{}, path...), spec.String())}
		}
	}

	version, err := r.pickVersion(ctx, entry.ID, spec)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", spec.String(), err)
	}
	internalVersion := version.InternalVersionString()

	pathLabel := strings.Join(path, " -> ")
	if prior, ok := state.resolved[entry.ID]; ok {
		if prior.internalVersion != internalVersion {
			return &VersionConflictError{
				OrgSlug: spec.Org, EntrySlug: spec.Name,
				PathA: prior.path, VersionA: prior.internalVersion,
				PathB: pathLabel, VersionB: internalVersion,
			}
		}
		return nil // already resolved to the same version via another path
	}
	state.resolved[entry.ID] = resolution{internalVersion: internalVersion, path: pathLabel}

	files, err := r.Store.ListVersionFiles(ctx, version.ID)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", spec.String(), err)
	}
	for _, f := range files {
		if spec.HasFormat() && f.FileFormat != spec.Format {
			continue
		}
		lockEntry := LockEntry{
			Spec:            spec.String(),
			InternalVersion: internalVersion,
			ExternalVersion: version.ExternalVersion,
			FileFormat:      f.FileFormat,
			Filename:        f.Filename,
			SizeBytes:       f.SizeBytes,
			SHA256:          f.SHA256,
		}
		if r.Blobs != nil {
			url, err := r.Blobs.PresignDownload(ctx, f.BlobKey, blobstore.DefaultPresignTTL)
			if err == nil {
				lockEntry.DownloadURL = url
			}
		}
		state.entries = append(state.entries, lockEntry)
	}

	deps, err := r.Store.ListDependencyEdges(ctx, version.ID)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", spec.String(), err)
	}
	for _, dep := range deps {
		childSpec := idver.Spec{Org: dep.ChildOrgSlug, Name: dep.ChildEntrySlug}
		childPath := append(append([]string{}, path...), childSpec.String())
		if err := r.resolveOne(ctx, state, childSpec, childPath); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) pickVersion(ctx context.Context, entryID int64, spec idver.Spec) (regdb.Version, error) {
	if !spec.HasVersion() || spec.Version == "latest" {
		v, ok, err := r.Store.GetLatestVersion(ctx, entryID)
		if err != nil {
			return regdb.Version{}, err
		}
		if !ok {
			return regdb.Version{}, fmt.Errorf("no published versions for %s", spec.Name)
		}
		return v, nil
	}

	parsed, err := idver.ParseVersion(spec.Version)
	if err != nil {
		return regdb.Version{}, fmt.Errorf("parse version %q: %w", spec.Version, err)
	}
	v, ok, err := r.Store.GetVersionExact(ctx, entryID, parsed.Major, parsed.Minor, parsed.Patch)
	if err != nil {
		return regdb.Version{}, err
	}
	if !ok {
		return regdb.Version{}, fmt.Errorf("no version %s for %s", spec.Version, spec.Name)
	}
	return v, nil
}
