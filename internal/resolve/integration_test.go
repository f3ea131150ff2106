//go:build integration

package resolve_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/bdp-project/bdp/internal/blobstore"
	"github.com/bdp-project/bdp/internal/regdb"
	"github.com/bdp-project/bdp/internal/resolve"
)

func mustSHA(t *testing.T, suffix string) string {
	t.Helper()
	return "a" + suffix + "000000000000000000000000000000000000000000000000000000000"
}

// TestResolveExpandsTransitiveDependency publishes a GenBank record that
// depends on a UniProt protein, then resolves a manifest naming only the
// GenBank spec and checks both files land in the lockfile, grounding
// spec.md §4.8's "expand dependency edges recursively" requirement.
func TestResolveExpandsTransitiveDependency(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("bdp_test"), postgres.WithUsername("bdp"), postgres.WithPassword("bdp"))
	require.NoError(t, err)
	defer func() { require.NoError(t, container.Terminate(ctx)) }()

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := regdb.Open(dsn)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Migrate(ctx))

	uniprotOrg, err := store.EnsureOrganization(ctx, "uniprot", "UniProt", true)
	require.NoError(t, err)
	genbankOrg, err := store.EnsureOrganization(ctx, "genbank", "GenBank", true)
	require.NoError(t, err)

	var proteinEntryID, genomeEntryID int64
	require.NoError(t, store.DB.QueryRowContext(ctx, `
		INSERT INTO registry_entries (organization_id, slug, name, entry_type)
		VALUES ($1,'p01308','Insulin','data_source') RETURNING id`, uniprotOrg).Scan(&proteinEntryID))
	require.NoError(t, store.DB.QueryRowContext(ctx, `
		INSERT INTO registry_entries (organization_id, slug, name, entry_type)
		VALUES ($1,'nm-000207','INS mRNA','data_source') RETURNING id`, genbankOrg).Scan(&genomeEntryID))

	_, _, err = store.PublishVersion(ctx, regdb.PublishVersionParams{
		EntryID: proteinEntryID, Major: 1, Minor: 0, ExternalVersion: "2024_01", OrganizationID: uniprotOrg,
		Files: []regdb.PublishFile{{
			FileFormat: "fasta", Filename: "P01308.fasta", SizeBytes: 256,
			SHA256: mustSHA(t, "1"), BlobKey: "data-sources/uniprot/p01308/1.0/P01308.fasta",
		}},
	})
	require.NoError(t, err)

	_, _, err = store.PublishVersion(ctx, regdb.PublishVersionParams{
		EntryID: genomeEntryID, Major: 1, Minor: 0, ExternalVersion: "GB_Release_257.0", OrganizationID: genbankOrg,
		Files: []regdb.PublishFile{{
			FileFormat: "genbank", Filename: "NM_000207.gb", SizeBytes: 1024,
			SHA256: mustSHA(t, "2"), BlobKey: "data-sources/genbank/nm-000207/1.0/NM_000207.gb",
		}},
		Dependencies: []regdb.PublishDependency{{ChildEntryID: proteinEntryID, RequiredVersionSpec: "encodes"}},
	})
	require.NoError(t, err)

	fsStore, err := blobstore.NewFSStore(t.TempDir(), []byte("test-secret"))
	require.NoError(t, err)
	r := resolve.New(store, fsStore)

	lock, err := r.Resolve(ctx, resolve.Manifest{
		Sources: []resolve.ManifestEntry{{Spec: "genbank:nm-000207"}},
	})
	require.NoError(t, err)
	require.Len(t, lock.Sources, 2)

	byFormat := map[string]resolve.LockEntry{}
	for _, e := range lock.Sources {
		byFormat[e.FileFormat] = e
	}
	require.Contains(t, byFormat, "genbank")
	require.Contains(t, byFormat, "fasta")
	require.Equal(t, "1.0", byFormat["fasta"].InternalVersion)
}

// TestResolveUnknownOrganizationReportsTypedError grounds spec.md §8's
// boundary behavior: a spec naming an organization the registry doesn't
// know about is a caller error (UnknownOrganizationError), not a bare
// regdb.ErrNotFound indistinguishable from an unknown entry.
func TestResolveUnknownOrganizationReportsTypedError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("bdp_test"), postgres.WithUsername("bdp"), postgres.WithPassword("bdp"))
	require.NoError(t, err)
	defer func() { require.NoError(t, container.Terminate(ctx)) }()

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := regdb.Open(dsn)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Migrate(ctx))

	fsStore, err := blobstore.NewFSStore(t.TempDir(), []byte("test-secret"))
	require.NoError(t, err)
	r := resolve.New(store, fsStore)

	_, err = r.Resolve(ctx, resolve.Manifest{
		Sources: []resolve.ManifestEntry{{Spec: "not-an-org:p01308"}},
	})
	require.Error(t, err)
	var unknownOrg *resolve.UnknownOrganizationError
	require.ErrorAs(t, err, &unknownOrg)
	require.Equal(t, "not-an-org", unknownOrg.OrgSlug)
}
