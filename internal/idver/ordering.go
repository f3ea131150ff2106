package idver

import (
	"fmt"
	"time"
)

// ExternalOrder turns an upstream's raw external_version string into a
// comparable ordering key, per spec.md §4.1 ("External versions order by a
// source-specific function: date for UniProt YYYY_MM and GO YYYY-MM-DD;
// release-number for GenBank/RefSeq; MAJOR.MINOR for InterPro").
type ExternalOrder interface {
	// Key returns a value usable with time.Time.Compare-style ordering;
	// implementations return (unixSeconds, nil) for date-based orderings or
	// (releaseNumber, nil) for counter-based ones, and a plain error
	// (carrying no bdperr kind) for an unparseable external version.
	Key(external string) (int64, error)
}

type dateOrder struct{ layout string }

func (d dateOrder) Key(external string) (int64, error) {
	t, err := time.Parse(d.layout, external)
	if err != nil {
		return 0, fmt.Errorf("parse external version %q as date (%s): %w", external, d.layout, err)
	}
	return t.Unix(), nil
}

type releaseNumberOrder struct{}

func (releaseNumberOrder) Key(external string) (int64, error) {
	n, err := parseGenBankRelease(external)
	if err != nil {
		return 0, err
	}
	return n, nil
}

type majorMinorOrder struct{}

func (majorMinorOrder) Key(external string) (int64, error) {
	v, err := ParseVersion(external)
	if err != nil {
		return 0, fmt.Errorf("parse external version %q as MAJOR.MINOR: %w", external, err)
	}
	// Pack major/minor into one comparable int64: major dominates.
	return int64(v.Major)<<32 | int64(v.Minor), nil
}

// OrderFor returns the ExternalOrder for a given upstream source family.
func OrderFor(source SourceType) ExternalOrder {
	switch source {
	case SourceUniProt:
		return dateOrder{layout: "2006_01"}
	case SourceOntology:
		return dateOrder{layout: "2006-01-02"}
	case SourceGenBank:
		return releaseNumberOrder{}
	case SourceInterPro:
		return majorMinorOrder{}
	default:
		// Taxonomy releases are dated YYYY-MM-DD, same as ontology.
		return dateOrder{layout: "2006-01-02"}
	}
}

// parseGenBankRelease extracts the numeric release from strings like
// "GB_Release_257.0" or bare "257.0", per spec.md's GenBank external
// version examples.
func parseGenBankRelease(external string) (int64, error) {
	s := external
	const prefix = "GB_Release_"
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		s = s[len(prefix):]
	}
	v, err := ParseVersion(s)
	if err != nil {
		return 0, fmt.Errorf("parse GenBank release %q: %w", external, err)
	}
	return int64(v.Major)<<32 | int64(v.Minor), nil
}
