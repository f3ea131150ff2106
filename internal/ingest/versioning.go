package ingest

import (
	"context"
	"fmt"
	"reflect"

	"github.com/bdp-project/bdp/internal/idver"
	"github.com/bdp-project/bdp/internal/regdb"
)

// NextVersion computes the internal version to publish for rec against
// entryID's current latest version, applying the per-source bump policy
// spec.md §4.1 describes. A brand-new entry (no prior version row) always
// starts at 1.0 — there is nothing to diff against.
func NextVersion(ctx context.Context, store *regdb.Store, entryID int64, sourceType regdb.SourceType, rec Record) (idver.Version, error) {
	latest, ok, err := store.GetLatestVersion(ctx, entryID)
	if err != nil {
		return idver.Version{}, err
	}
	if !ok {
		return idver.Version{Major: 1, Minor: 0, Patch: 0}, nil
	}

	bump := classifyBump(sourceType, rec, latest)
	prev := idver.Version{Major: latest.Major, Minor: latest.Minor, Patch: latest.Patch, HasPatch: latest.Patch != 0}
	return bump.Apply(prev), nil
}

// classifyBump maps one Record's observed delta against the previously
// published version onto the idver.Bump family for its source, per spec.md
// §4.1's per-source policies. Comparisons are over rec.Metadata (the
// record's normalized field set) and SequenceSHA256 since that's all the
// coordinator has to diff with — no separate change-feed exists.
func classifyBump(sourceType regdb.SourceType, rec Record, latest regdb.Version) idver.Bump {
	prevSHA, _ := latest.Metadata["sequence_sha256"].(string)
	changed := metadataChanged(rec, latest) || (rec.SequenceSHA256 != "" && rec.SequenceSHA256 != prevSHA)

	switch sourceType {
	case regdb.SourceProtein:
		return idver.UniProtBump(idver.UniProtChange{
			SequenceHashChanged:          rec.SequenceSHA256 != "" && rec.SequenceSHA256 != prevSHA,
			DescriptionOrGeneOnlyChanged: changed && rec.SequenceSHA256 == prevSHA && onlyTextFieldsChanged(rec, latest),
			AnythingChanged:              changed,
		})
	case regdb.SourceTaxonomy:
		mergedOrDeleted, _ := rec.Metadata["merged_or_deleted"].(bool)
		return idver.TaxonomyBump(idver.TaxonomyChange{
			MergedOrDeleted: mergedOrDeleted,
			LineageChanged:  changed,
		})
	case regdb.SourceGenome:
		unstable, _ := rec.Metadata["referenced_taxon_unstable"].(bool)
		return idver.GenBankBump(idver.GenBankChange{
			ReferencedTaxonUnstable: unstable,
			AnythingChanged:         changed,
		})
	case regdb.SourceOntology:
		obsolete, _ := rec.Metadata["is_obsolete"].(bool)
		return idver.OntologyBump(idver.OntologyChange{
			TermObsoleted:   obsolete,
			DefinitionEdit:  fieldChanged(rec, latest, "def"),
			AnythingChanged: changed,
		})
	default:
		if changed {
			return idver.BumpMinor
		}
		return idver.BumpNone
	}
}

func metadataChanged(rec Record, latest regdb.Version) bool {
	return !reflect.DeepEqual(normalizeMetadata(rec.Metadata), stripBookkeeping(normalizeMetadata(latest.Metadata)))
}

// stripBookkeeping removes fields NewCommitHandler layers onto published
// metadata after the fact (sequence_sha256) so metadataChanged compares
// only the record's own domain fields against the prior record's.
func stripBookkeeping(m map[string]any) map[string]any {
	if _, ok := m["sequence_sha256"]; !ok {
		return m
	}
	out := make(map[string]any, len(m)-1)
	for k, v := range m {
		if k != "sequence_sha256" {
			out[k] = v
		}
	}
	return out
}

func onlyTextFieldsChanged(rec Record, latest regdb.Version) bool {
	if !fieldChanged(rec, latest, "description") && !fieldChanged(rec, latest, "gene_name") {
		return false
	}
	rest := func(m map[string]any) map[string]any {
		out := make(map[string]any, len(m))
		for k, v := range m {
			if k != "description" && k != "gene_name" && k != "sequence_sha256" {
				out[k] = v
			}
		}
		return out
	}
	return reflect.DeepEqual(rest(rec.Metadata), rest(latest.Metadata))
}

func fieldChanged(rec Record, latest regdb.Version, key string) bool {
	return fmt.Sprint(rec.Metadata[key]) != fmt.Sprint(latest.Metadata[key])
}

func normalizeMetadata(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
