// Package registry maps a job_type string onto the ingest.Pipeline that
// handles it. It exists only to avoid an import cycle: each
// internal/ingest/sources/* package imports internal/ingest for
// ingest.Record/ingest.Pipeline, so the dispatch table connecting job_type
// names to concrete pipelines can't live inside internal/ingest itself.
package registry

import (
	"fmt"

	"github.com/bdp-project/bdp/internal/ingest"
	"github.com/bdp-project/bdp/internal/ingest/sources/gaf"
	"github.com/bdp-project/bdp/internal/ingest/sources/genbank"
	"github.com/bdp-project/bdp/internal/ingest/sources/interpro"
	"github.com/bdp-project/bdp/internal/ingest/sources/ncbitaxonomy"
	"github.com/bdp-project/bdp/internal/ingest/sources/obo"
	"github.com/bdp-project/bdp/internal/ingest/sources/uniprot"
)

// Job types are the spec.md §4.5 source names, used verbatim as
// ingestion_jobs.job_type.
const (
	UniProt      = "uniprot"
	NCBITaxonomy = "ncbitaxonomy"
	GenBank      = "genbank"
	OBO          = "obo"
	GAF          = "gaf"
	InterPro     = "interpro"
)

// PipelineFor returns the ingest.Pipeline registered for jobType, or an
// error if the name isn't one of spec.md §4.5's six source pipelines.
func PipelineFor(jobType string) (ingest.Pipeline, error) {
	switch jobType {
	case UniProt:
		return uniprot.New(), nil
	case NCBITaxonomy:
		return ncbitaxonomy.New(), nil
	case GenBank:
		return genbank.New(), nil
	case OBO:
		return obo.New(), nil
	case GAF:
		return gaf.New(), nil
	case InterPro:
		return interpro.New(), nil
	default:
		return nil, fmt.Errorf("registry: unknown job type %q", jobType)
	}
}

// JobTypes lists every registered job type, in the order spec.md §4.5
// introduces the source pipelines.
func JobTypes() []string {
	return []string{UniProt, NCBITaxonomy, GenBank, OBO, GAF, InterPro}
}
