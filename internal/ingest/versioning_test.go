package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bdp-project/bdp/internal/idver"
	"github.com/bdp-project/bdp/internal/regdb"
)

func TestClassifyBumpUniProtSequenceChangeIsMajor(t *testing.T) {
	latest := regdb.Version{Metadata: map[string]any{"sequence_sha256": "aaa"}}
	rec := Record{SourceType: regdb.SourceProtein, SequenceSHA256: "bbb"}
	assert.Equal(t, idver.BumpMajor, classifyBump(regdb.SourceProtein, rec, latest))
}

func TestClassifyBumpUniProtNoChangeIsNone(t *testing.T) {
	latest := regdb.Version{Metadata: map[string]any{"sequence_sha256": "aaa"}}
	rec := Record{SourceType: regdb.SourceProtein, SequenceSHA256: "aaa"}
	assert.Equal(t, idver.BumpNone, classifyBump(regdb.SourceProtein, rec, latest))
}

func TestClassifyBumpUniProtDescriptionOnlyIsPatch(t *testing.T) {
	latest := regdb.Version{Metadata: map[string]any{
		"sequence_sha256": "aaa", "description": "old", "gene_name": "INS",
	}}
	rec := Record{
		SourceType:     regdb.SourceProtein,
		SequenceSHA256: "aaa",
		Metadata:       map[string]any{"description": "new", "gene_name": "INS"},
	}
	assert.Equal(t, idver.BumpPatch, classifyBump(regdb.SourceProtein, rec, latest))
}

func TestClassifyBumpTaxonomyMergedIsMajor(t *testing.T) {
	latest := regdb.Version{}
	rec := Record{SourceType: regdb.SourceTaxonomy, Metadata: map[string]any{"merged_or_deleted": true}}
	assert.Equal(t, idver.BumpMajor, classifyBump(regdb.SourceTaxonomy, rec, latest))
}

func TestClassifyBumpOntologyObsoleteIsMajor(t *testing.T) {
	latest := regdb.Version{}
	rec := Record{SourceType: regdb.SourceOntology, Metadata: map[string]any{"is_obsolete": true}}
	assert.Equal(t, idver.BumpMajor, classifyBump(regdb.SourceOntology, rec, latest))
}

func TestClassifyBumpUnknownSourceDefaultsToMinorOnChange(t *testing.T) {
	latest := regdb.Version{Metadata: map[string]any{"a": 1}}
	rec := Record{SourceType: regdb.SourceBundle, Metadata: map[string]any{"a": 2}}
	assert.Equal(t, idver.BumpMinor, classifyBump(regdb.SourceBundle, rec, latest))
}
