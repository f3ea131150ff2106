package idver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBumpApply(t *testing.T) {
	prev := Version{Major: 1, Minor: 3, HasPatch: false}
	assert.Equal(t, Version{Major: 2, Minor: 0}, BumpMajor.Apply(prev))
	assert.Equal(t, Version{Major: 1, Minor: 4}, BumpMinor.Apply(prev))
	assert.Equal(t, prev, BumpNone.Apply(prev))

	patched := Version{Major: 1, Minor: 0, Patch: 2, HasPatch: true}
	assert.Equal(t, Version{Major: 1, Minor: 0, Patch: 3, HasPatch: true}, BumpPatch.Apply(patched))
}

func TestWorstAggregatesSeverity(t *testing.T) {
	assert.Equal(t, BumpMajor, Worst(BumpMinor, BumpMajor))
	assert.Equal(t, BumpMinor, Worst(BumpNone, BumpMinor))
	assert.Equal(t, BumpNone, Worst(BumpNone, BumpNone))
}

func TestUniProtBumpPolicy(t *testing.T) {
	assert.Equal(t, BumpNone, UniProtBump(UniProtChange{}))
	assert.Equal(t, BumpMajor, UniProtBump(UniProtChange{AnythingChanged: true, SequenceHashChanged: true}))
	assert.Equal(t, BumpPatch, UniProtBump(UniProtChange{AnythingChanged: true, DescriptionOrGeneOnlyChanged: true}))
	assert.Equal(t, BumpMinor, UniProtBump(UniProtChange{AnythingChanged: true}))
}

func TestTaxonomyBumpPolicy(t *testing.T) {
	assert.Equal(t, BumpMajor, TaxonomyBump(TaxonomyChange{MergedOrDeleted: true}))
	assert.Equal(t, BumpMinor, TaxonomyBump(TaxonomyChange{LineageChanged: true}))
	assert.Equal(t, BumpNone, TaxonomyBump(TaxonomyChange{}))
}

func TestGenBankBumpCascadesTaxonomyInstability(t *testing.T) {
	assert.Equal(t, BumpMinor, GenBankBump(GenBankChange{AnythingChanged: true}))
	assert.Equal(t, BumpMajor, GenBankBump(GenBankChange{AnythingChanged: true, ReferencedTaxonUnstable: true}))
	assert.Equal(t, BumpNone, GenBankBump(GenBankChange{}))
}

func TestInterProBumpMirrorsExternalVersion(t *testing.T) {
	assert.Equal(t, BumpMajor, InterProBump(InterProChange{ExternalMajorChanged: true}))
	assert.Equal(t, BumpMinor, InterProBump(InterProChange{ExternalMinorChanged: true}))
	assert.Equal(t, BumpNone, InterProBump(InterProChange{}))
}
