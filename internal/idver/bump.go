package idver

// Bump is the outcome of a source's version-bump strategy for one observed
// external version, per spec.md §4.1.
type Bump int

const (
	// BumpNone means no structural change was detected; the prior internal
	// version is reused and no new version row is written.
	BumpNone Bump = iota
	BumpPatch
	BumpMinor
	BumpMajor
)

func (b Bump) String() string {
	switch b {
	case BumpMajor:
		return "major"
	case BumpMinor:
		return "minor"
	case BumpPatch:
		return "patch"
	default:
		return "none"
	}
}

// Apply returns the version obtained by applying b on top of prev. BumpNone
// returns prev unchanged; callers should treat that as "reuse, don't write".
func (b Bump) Apply(prev Version) Version {
	switch b {
	case BumpMajor:
		return Version{Major: prev.Major + 1, Minor: 0, Patch: 0, HasPatch: prev.HasPatch}
	case BumpMinor:
		return Version{Major: prev.Major, Minor: prev.Minor + 1, Patch: 0, HasPatch: prev.HasPatch}
	case BumpPatch:
		return Version{Major: prev.Major, Minor: prev.Minor, Patch: prev.Patch + 1, HasPatch: true}
	default:
		return prev
	}
}

// Worst returns the more severe of two bumps (Major > Minor > Patch > None).
// Used to aggregate per-accession bumps up to a release-level bump, per
// spec.md §4.1 ("the registry-level bump for a release aggregates
// accession-level bumps to the worst severity").
func Worst(a, b Bump) Bump {
	if a > b {
		return a
	}
	return b
}

// SourceType names the upstream family a bump policy applies to. Kept
// distinct from regdb.SourceType (the persisted enum) so this package has
// no dependency on the storage layer.
type SourceType string

const (
	SourceUniProt   SourceType = "uniprot"
	SourceTaxonomy  SourceType = "taxonomy"
	SourceGenBank   SourceType = "genbank"
	SourceOntology  SourceType = "ontology" // OBO/GAF (Gene Ontology)
	SourceInterPro  SourceType = "interpro"
)

// UniProtChange classifies what differs between the previous and the
// newly-observed record for one accession. Only one policy decision is
// resolved per DESIGN.md's recorded Open Question answer: sequence hash
// change dominates, then free-text-only changes are Patch, everything else
// (citations, features, cross-references) is Minor.
type UniProtChange struct {
	SequenceHashChanged bool
	DescriptionOrGeneOnlyChanged bool // DE/GN free text touched, nothing else
	AnythingChanged     bool
}

// UniProtBump implements the per-accession policy described in spec.md §4.1
// and resolved under "Open Question decisions" in DESIGN.md.
func UniProtBump(c UniProtChange) Bump {
	switch {
	case !c.AnythingChanged:
		return BumpNone
	case c.SequenceHashChanged:
		return BumpMajor
	case c.DescriptionOrGeneOnlyChanged:
		return BumpPatch
	default:
		return BumpMinor
	}
}

// TaxonomyChange classifies an observed taxdump delta for one taxon id.
type TaxonomyChange struct {
	MergedOrDeleted bool
	LineageChanged  bool
}

// TaxonomyBump: MAJOR on merged/deleted taxa, otherwise MINOR on any
// lineage change, per spec.md §4.1.
func TaxonomyBump(c TaxonomyChange) Bump {
	switch {
	case c.MergedOrDeleted:
		return BumpMajor
	case c.LineageChanged:
		return BumpMinor
	default:
		return BumpNone
	}
}

// GenBankChange classifies one GenBank record's relationship to a
// possibly-unstable taxon reference, per the Open Question resolution
// recorded in DESIGN.md: GenBank defaults to MINOR within a release
// series, overridden to MAJOR only when its db_xref taxon has itself been
// flagged merged/deleted by taxonomy ingestion.
type GenBankChange struct {
	ReferencedTaxonUnstable bool
	AnythingChanged         bool
}

func GenBankBump(c GenBankChange) Bump {
	switch {
	case !c.AnythingChanged:
		return BumpNone
	case c.ReferencedTaxonUnstable:
		return BumpMajor
	default:
		return BumpMinor
	}
}

// OntologyChange classifies one OBO/GAF term or relationship delta.
type OntologyChange struct {
	TermObsoleted  bool // is_obsolete flipped true, or alt_id merge
	DefinitionEdit bool
	AnythingChanged bool
}

func OntologyBump(c OntologyChange) Bump {
	switch {
	case !c.AnythingChanged:
		return BumpNone
	case c.TermObsoleted:
		return BumpMajor
	case c.DefinitionEdit:
		return BumpMinor
	default:
		return BumpPatch
	}
}

// InterProChange classifies one InterPro entry delta; InterPro's own
// external version is already MAJOR.MINOR, so the internal bump mirrors it
// directly rather than re-deriving severity from content.
type InterProChange struct {
	ExternalMajorChanged bool
	ExternalMinorChanged bool
}

func InterProBump(c InterProChange) Bump {
	switch {
	case c.ExternalMajorChanged:
		return BumpMajor
	case c.ExternalMinorChanged:
		return BumpMinor
	default:
		return BumpNone
	}
}
