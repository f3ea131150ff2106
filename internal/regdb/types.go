package regdb

import "time"

// EntryType is the closed set spec.md §3 defines for registry_entries.
type EntryType string

const (
	EntryTypeDataSource EntryType = "data_source"
	EntryTypeTool       EntryType = "tool"
	EntryTypeAggregate  EntryType = "aggregate"
)

// SourceType is the closed set for data_source_metadata.source_type.
type SourceType string

const (
	SourceProtein     SourceType = "protein"
	SourceTaxonomy    SourceType = "taxonomy"
	SourceGenome      SourceType = "genome"
	SourceTranscript  SourceType = "transcript"
	SourceAnnotation  SourceType = "annotation"
	SourceStructure   SourceType = "structure"
	SourcePathway     SourceType = "pathway"
	SourceBundle      SourceType = "bundle"
	SourceOntology    SourceType = "ontology"
)

// JobStatus is the ingestion_jobs lifecycle, spec.md §4.4.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobSkipped   JobStatus = "skipped"
)

type Organization struct {
	ID       int64
	Slug     string
	Name     string
	Website  *string
	IsSystem bool
}

type RegistryEntry struct {
	ID               int64
	OrganizationID   int64
	Slug             string
	Name             string
	EntryType        EntryType
	Description      *string
	DependencyCount  int
}

type DataSourceMetadata struct {
	EntryID    int64
	SourceType SourceType
	ExternalID *string
}

type Version struct {
	ID              int64
	EntryID         int64
	Major, Minor, Patch int
	ExternalVersion string
	ReleaseDate     *time.Time
	SizeBytes       int64
	Metadata        map[string]any
}

// InternalVersionString renders "MAJOR.MINOR" (or "MAJOR.MINOR.PATCH" when
// Patch is tracked; callers that don't track patch pass Patch=0 and this
// still renders the two-component form used across the registry).
func (v Version) InternalVersionString() string {
	return versionString(v.Major, v.Minor, v.Patch)
}

func versionString(major, minor, patch int) string {
	if patch == 0 {
		return itoa(major) + "." + itoa(minor)
	}
	return itoa(major) + "." + itoa(minor) + "." + itoa(patch)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

type VersionFile struct {
	ID         int64
	VersionID  int64
	FileFormat string
	Filename   string
	SizeBytes  int64
	SHA256     string
	MD5        *string
	BlobKey    string
}

type DependencyEdge struct {
	ParentVersionID     int64
	ChildEntryID        int64
	RequiredVersionSpec string
}

type VersionMapping struct {
	EntryID         int64
	ExternalVersion string
	InternalVersion string
}

type IngestionJob struct {
	ID               int64
	JobID            string // UUID
	OrganizationID   int64
	JobType          string
	ExternalVersion  string
	InternalVersion  *string
	Status           JobStatus
	SourceMetadata   map[string]any
	RecordsProcessed int
	RecordsSkipped   int
	RecordsFailed    int
	StartedAt        *time.Time
	FinishedAt       *time.Time
	Error            *string
}

type OrganizationSyncStatus struct {
	OrganizationID      int64
	LastExternalVersion *string
	LastSyncAt          *time.Time
	LastJobID           *string
}

type AuditRecord struct {
	ID           int64
	Timestamp    time.Time
	Action       string
	ResourceType string
	ResourceID   *string
	UserID       *string
	IP           *string
	UserAgent    *string
	Changes      map[string]any
	Metadata     map[string]any
}

// SearchHit is one row of the search_projection materialized view.
type SearchHit struct {
	EntryID          int64
	Slug             string
	OrgSlug          string
	Name             string
	EntryType        EntryType
	SourceType       SourceType
	Description      string
	Organism         string
	PopularityWeight float64
	Rank             float64
}
