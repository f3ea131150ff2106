// Package discovery implements version discovery (spec.md §4.6): a trait
// with a shared default filter/intersect/min/max algorithm over the list of
// versions a source exposes, with source-specific discovery underneath.
package discovery

import (
	"context"
	"sort"
	"time"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/idver"
)

// Candidate is one upstream release as seen by discovery, before it becomes
// a registry_entries/versions row. IsCurrent distinguishes a source's
// "/current_release" path from "/previous_releases/..." (spec.md §4.6).
type Candidate struct {
	ExternalVersion string
	IsCurrent       bool
}

// Discoverer is the per-source half of C6: list everything a source
// exposes, unordered and unfiltered. Source-specific implementations parse
// FTP LIST output, HTML anchors, or a known fixed endpoint. DiscoverSorted
// drops any entry whose version string the source's ExternalOrder rejects;
// no error is reported for a dropped entry, and the rest of the listing is
// kept.
type Discoverer interface {
	DiscoverAll(ctx context.Context) ([]Candidate, error)
}

// Source pairs a Discoverer with the ordering its external versions use, so
// the default filter/intersect/min/max algorithm below needs no source-type
// switch of its own.
type Source struct {
	Discoverer Discoverer
	Order      idver.ExternalOrder
}

// sortable couples a Candidate with its resolved ordering key so a single
// parse error doesn't have to re-run for every comparison.
type sortable struct {
	Candidate
	key int64
}

// DiscoverSorted runs the source's Discoverer and returns its candidates
// ordered ascending by the source's external ordering. Candidates whose
// ExternalVersion the ordering rejects are dropped (spec.md §4.6: "invalid
// entries rejected with ParseError") rather than failing the whole call.
func DiscoverSorted(ctx context.Context, src Source) ([]Candidate, error) {
	raw, err := src.Discoverer.DiscoverAll(ctx)
	if err != nil {
		return nil, err
	}

	sortables := make([]sortable, 0, len(raw))
	for _, c := range raw {
		key, err := src.Order.Key(c.ExternalVersion)
		if err != nil {
			continue
		}
		sortables = append(sortables, sortable{Candidate: c, key: key})
	}
	sort.Slice(sortables, func(i, j int) bool { return sortables[i].key < sortables[j].key })

	out := make([]Candidate, len(sortables))
	for i, s := range sortables {
		out[i] = s.Candidate
	}
	return out, nil
}

// FilterByDateRange keeps only candidates whose ordering key falls within
// [since, until] inclusive. since/until are themselves external version
// strings run through the same ordering, so date-based and release-number-
// based sources share one implementation.
func FilterByDateRange(sorted []Candidate, order idver.ExternalOrder, since, until string) ([]Candidate, error) {
	var lo, hi int64 = minInt64, maxInt64
	if since != "" {
		k, err := order.Key(since)
		if err != nil {
			return nil, bdperr.Wrap(bdperr.KindParseError, err, "parse --since bound")
		}
		lo = k
	}
	if until != "" {
		k, err := order.Key(until)
		if err != nil {
			return nil, bdperr.Wrap(bdperr.KindParseError, err, "parse --until bound")
		}
		hi = k
	}

	var out []Candidate
	for _, c := range sorted {
		key, err := order.Key(c.ExternalVersion)
		if err != nil {
			continue
		}
		if key >= lo && key <= hi {
			out = append(out, c)
		}
	}
	return out, nil
}

const (
	minInt64 = -1 << 63
	maxInt64 = 1<<63 - 1
)

// FilterNew is the set-difference half of discovery: drop any candidate
// whose external_version is already present in alreadyIngested.
func FilterNew(candidates []Candidate, alreadyIngested map[string]struct{}) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if _, done := alreadyIngested[c.ExternalVersion]; !done {
			out = append(out, c)
		}
	}
	return out
}

// GetNewest returns the last element of a sorted-ascending slice, or false
// if empty.
func GetNewest(sorted []Candidate) (Candidate, bool) {
	if len(sorted) == 0 {
		return Candidate{}, false
	}
	return sorted[len(sorted)-1], true
}

// GetOldest returns the first element of a sorted-ascending slice, or false
// if empty.
func GetOldest(sorted []Candidate) (Candidate, bool) {
	if len(sorted) == 0 {
		return Candidate{}, false
	}
	return sorted[0], true
}

// ParseNaturalDate turns a free-form date value (e.g. "3 months ago",
// "last tuesday") into a string in the caller's time layout, via the
// natural-language date parser. bdp clean --age calls it with
// time.RFC3339; a caller wanting an external-version string passes that
// source's layout (e.g. UniProt's "2006_01").
func ParseNaturalDate(raw string, reference time.Time, layout string) (string, error) {
	t, err := parseWhen(raw, reference)
	if err != nil {
		return "", bdperr.Wrap(bdperr.KindParseError, err, "parse natural-language date")
	}
	return t.Format(layout), nil
}
