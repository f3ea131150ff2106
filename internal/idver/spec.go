// Package idver implements the identity and versioning model: parsing the
// "org:name@version-format" spec grammar, the per-source version-bump
// policy, and the ordering rules version discovery depends on.
package idver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// slugPattern matches organization_slug and entry_slug: ASCII [a-z0-9-], 1-100 chars.
var slugPattern = regexp.MustCompile(`^[a-z0-9-]{1,100}$`)

// Spec is a parsed "org:name@version-format" reference. Version and Format
// are optional in the grammar; their zero value means "unspecified" and
// callers resolve to latest-compatible / any-format respectively.
type Spec struct {
	Org     string
	Name    string
	Version string // e.g. "1.3", empty if omitted
	Format  string // e.g. "fasta", empty if omitted

	Raw string
}

// HasVersion reports whether the spec pinned an explicit version.
func (s Spec) HasVersion() bool { return s.Version != "" }

// HasFormat reports whether the spec pinned an explicit file format.
func (s Spec) HasFormat() bool { return s.Format != "" }

// String renders the canonical textual form of the spec.
func (s Spec) String() string {
	var b strings.Builder
	b.WriteString(s.Org)
	b.WriteByte(':')
	b.WriteString(s.Name)
	if s.Version != "" {
		b.WriteByte('@')
		b.WriteString(s.Version)
	}
	if s.Format != "" {
		if s.Version == "" {
			b.WriteByte('@')
		}
		b.WriteByte('-')
		b.WriteString(s.Format)
	}
	return b.String()
}

// ParseSpec parses "org:name@version-format" per spec.md §3/§4.1, as well
// as the "org:name-format@version" ordering spec.md §6 uses in practice
// (e.g. "ncbi:9606-taxonomy@2.1"). Both "@version" and "-format" are
// optional. Errors are bdperr.KindValidation ("InvalidSpec"), citing the
// byte offset of the problem.
func ParseSpec(raw string) (Spec, error) {
	orig := raw
	colon := strings.IndexByte(raw, ':')
	if colon < 0 {
		return Spec{}, invalidSpec(orig, 0, "missing ':' separating organization from entry name")
	}
	org := raw[:colon]
	rest := raw[colon+1:]

	name := rest
	version := ""
	format := ""

	if at := strings.IndexByte(rest, '@'); at >= 0 {
		namePart := rest[:at]
		afterAt := rest[at+1:]
		if dash := strings.IndexByte(namePart, '-'); dash >= 0 && looksLikeFormatSuffix(namePart[dash:]) {
			// "name-format@version", e.g. "ncbi:9606-taxonomy@2.1"
			name = namePart[:dash]
			format = namePart[dash+1:]
			version = afterAt
		} else if dash := strings.IndexByte(afterAt, '-'); dash >= 0 {
			// "name@version-format", e.g. "uniprot:P01308@1.0-fasta"
			name = namePart
			version = afterAt[:dash]
			format = afterAt[dash+1:]
		} else {
			name = namePart
			version = afterAt
		}
	} else if dash := strings.IndexByte(rest, '-'); dash >= 0 && looksLikeFormatSuffix(rest[dash:]) {
		// "-format" with no version, e.g. "uniprot:P01308-fasta"
		name = rest[:dash]
		format = rest[dash+1:]
	}

	if !slugPattern.MatchString(org) {
		return Spec{}, invalidSpec(orig, 0, fmt.Sprintf("organization slug %q is not [a-z0-9-]{1,100}", org))
	}
	if !slugPattern.MatchString(name) {
		return Spec{}, invalidSpec(orig, colon+1, fmt.Sprintf("entry slug %q is not [a-z0-9-]{1,100}", name))
	}
	if version != "" {
		if _, err := ParseVersion(version); err != nil {
			return Spec{}, invalidSpec(orig, colon+1, fmt.Sprintf("version %q is malformed: %v", version, err))
		}
	}
	if format != "" && !formatPattern.MatchString(format) {
		return Spec{}, invalidSpec(orig, len(orig)-len(format), fmt.Sprintf("file format %q is malformed", format))
	}

	return Spec{Org: org, Name: name, Version: version, Format: format, Raw: orig}, nil
}

var formatPattern = regexp.MustCompile(`^[a-z0-9.]{1,32}$`)

// looksLikeFormatSuffix is a heuristic: a "name-suffix" part (the whole
// name with no "@", or the part before "@") is read as a format suffix
// only when the suffix doesn't itself look like a version number, so
// "org:name-2" is not misparsed as a format.
func looksLikeFormatSuffix(dashAndRest string) bool {
	suffix := strings.TrimPrefix(dashAndRest, "-")
	if suffix == "" {
		return false
	}
	if _, err := ParseVersion(suffix); err == nil {
		return false
	}
	return formatPattern.MatchString(suffix)
}

func invalidSpec(raw string, pos int, reason string) error {
	return bdperr.New(bdperr.KindValidation, fmt.Sprintf("InvalidSpec at %d in %q: %s", pos, raw, reason))
}

// Version is an internal MAJOR.MINOR[.PATCH] version, per spec.md §3.
type Version struct {
	Major, Minor, Patch int
	HasPatch            bool
}

// String renders "MAJOR.MINOR" or "MAJOR.MINOR.PATCH" depending on HasPatch.
func (v Version) String() string {
	if v.HasPatch {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compare orders versions on (major, minor, patch) with numeric compare,
// per spec.md §4.1. Returns -1, 0, or 1.
func (v Version) Compare(o Version) int {
	if v.Major != o.Major {
		return sign(v.Major - o.Major)
	}
	if v.Minor != o.Minor {
		return sign(v.Minor - o.Minor)
	}
	return sign(v.Patch - o.Patch)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// ParseVersion parses "MAJOR.MINOR" or "MAJOR.MINOR.PATCH".
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 && len(parts) != 3 {
		return Version{}, fmt.Errorf("expected MAJOR.MINOR or MAJOR.MINOR.PATCH, got %q", s)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, fmt.Errorf("non-numeric major component %q", parts[0])
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return Version{}, fmt.Errorf("non-numeric minor component %q", parts[1])
	}
	v := Version{Major: major, Minor: minor}
	if len(parts) == 3 {
		patch, err := strconv.Atoi(parts[2])
		if err != nil {
			return Version{}, fmt.Errorf("non-numeric patch component %q", parts[2])
		}
		v.Patch = patch
		v.HasPatch = true
	}
	return v, nil
}

// FirstVersion is the version assigned to an entry's first-ever release.
func FirstVersion(trackPatch bool) Version {
	return Version{Major: 1, Minor: 0, HasPatch: trackPatch}
}
