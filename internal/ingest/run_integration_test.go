//go:build integration

package ingest_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/bdp-project/bdp/internal/ingest"
	"github.com/bdp-project/bdp/internal/ingest/sources/uniprot"
	"github.com/bdp-project/bdp/internal/regdb"
)

const twoUniProtEntries = `ID   INS_HUMAN               Reviewed;         110 AA.
AC   P01308;
DE   RecName: Full=Insulin;
GN   Name=INS;
OS   Homo sapiens.
OX   NCBI_TaxID=9606;
SQ   SEQUENCE   10 AA;
     MALWMRLLPL
//
ID   HBB_HUMAN               Reviewed;         146 AA.
AC   P68871;
DE   RecName: Full=Hemoglobin subunit beta;
GN   Name=HBB;
OS   Homo sapiens.
OX   NCBI_TaxID=9606;
SQ   SEQUENCE   10 AA;
     MVHLTPEEKS
//
`

// TestRunJobUniProtSmoke grounds spec.md §8's "UniProt ingest smoke" scenario
// end to end through the coordinator: Parse -> chunked commit -> publish,
// checking the job lands with records_processed = 2 and each entry gets
// internal version 1.0.
func TestRunJobUniProtSmoke(t *testing.T) {
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

	orgID, err := store.EnsureOrganization(ctx, "uniprot", "UniProt", true)
	require.NoError(t, err)

	coord := ingest.NewCoordinator(store)
	result, err := coord.RunJob(ctx, uniprot.New(), ingest.RunParams{
		Key:             ingest.JobKey{OrganizationID: orgID, JobType: "uniprot", ExternalVersion: "2024_01"},
		OrgSlug:         "uniprot",
		JobType:         "uniprot",
		SourceMetadata:  map[string]any{"is_current_release": true},
		Source:          strings.NewReader(twoUniProtEntries),
		ParseLimit:      -1,
	})
	require.NoError(t, err)
	require.False(t, result.Skipped)
	require.Equal(t, 2, result.Processed)
	require.Zero(t, result.Failed)

	entry, err := store.GetEntry(ctx, orgID, "p01308")
	require.NoError(t, err)
	latest, ok, err := store.GetLatestVersion(ctx, entry.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1.0", latest.InternalVersionString())

	var status string
	require.NoError(t, store.DB.QueryRowContext(ctx,
		`SELECT status FROM ingestion_jobs WHERE job_id = $1::uuid`, result.JobID).Scan(&status))
	require.Equal(t, "succeeded", status)
}

// TestRunJobSkipsAlreadyRunJob grounds spec.md §4.4's job-identity rule: a
// second RunJob for the same (organization, job_type, external_version) key
// observes the first job already exists and reports Skipped rather than
// re-ingesting.
func TestRunJobSkipsAlreadyRunJob(t *testing.T) {
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

	orgID, err := store.EnsureOrganization(ctx, "uniprot", "UniProt", true)
	require.NoError(t, err)

	coord := ingest.NewCoordinator(store)
	key := ingest.JobKey{OrganizationID: orgID, JobType: "uniprot", ExternalVersion: "2024_01"}

	_, err = coord.RunJob(ctx, uniprot.New(), ingest.RunParams{
		Key: key, OrgSlug: "uniprot", JobType: "uniprot",
		Source: strings.NewReader(twoUniProtEntries), ParseLimit: -1,
	})
	require.NoError(t, err)

	second, err := coord.RunJob(ctx, uniprot.New(), ingest.RunParams{
		Key: key, OrgSlug: "uniprot", JobType: "uniprot",
		Source: strings.NewReader(twoUniProtEntries), ParseLimit: -1,
	})
	require.NoError(t, err)
	require.True(t, second.Skipped)
}
