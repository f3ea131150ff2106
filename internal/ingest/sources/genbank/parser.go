// Package genbank implements the GenBank flat-file pipeline (spec.md
// §4.5): a state machine over LOCUS/DEFINITION/ACCESSION/VERSION/ORGANISM/
// FEATURES/ORIGIN sections, emitting a nucleotide record plus zero-or-more
// CDS-to-protein mapping hints.
package genbank

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/bdp-project/bdp/internal/ingest"
)

// section is the state-machine's current section; a tagged enum, not a
// class hierarchy, per spec.md §9 ("parser state machines are naturally
// expressed as tagged sum types").
type section int

const (
	sectionNone section = iota
	sectionDefinition
	sectionAccession
	sectionVersion
	sectionOrganism
	sectionFeatures
	sectionOrigin
)

// CDSHint is one CDS->protein mapping hint emitted alongside the
// nucleotide record, per spec.md §4.5.
type CDSHint struct {
	ProteinID     string
	Translation   string
	DBXrefTaxon   int
	CodonStart    int
}

var taxonXrefPattern = regexp.MustCompile(`/db_xref="taxon:(\d+)"`)
var proteinIDPattern = regexp.MustCompile(`/protein_id="([^"]+)"`)
var translationPattern = regexp.MustCompile(`/translation="([^"]*)"?$`)
var codonStartPattern = regexp.MustCompile(`/codon_start=(\d+)`)

// Parser implements ingest.Pipeline for GenBank flat files.
type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Discover() ([]string, error) {
	return nil, fmt.Errorf("genbank: Discover requires an FTP collaborator, not implemented in-process")
}

type entry struct {
	locus       string
	division    string
	definition  strings.Builder
	accession   string
	version     string
	organism    strings.Builder
	origin      strings.Builder
	cdsHints    []CDSHint
	curCDS      *CDSHint
	inTranslation bool
}

// Parse reads a GenBank flat-file stream, section by section, emitting one
// Record per "//" entry terminator.
func (p *Parser) Parse(r io.Reader, limit int) ([]ingest.Record, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var out []ingest.Record
	var e entry
	sec := sectionNone

	flush := func() ingest.Record {
		origin := strings.ToUpper(strings.ReplaceAll(e.origin.String(), " ", ""))
		sum := sha256.Sum256([]byte(origin))
		accessionDotVersion := e.accession
		if e.version != "" {
			accessionDotVersion = e.version
		}
		rec := ingest.Record{
			EntrySlug:      strings.ToLower(accessionDotVersion),
			EntryName:      e.locus,
			Description:    strings.TrimSpace(e.definition.String()),
			SourceType:     "genome",
			SequenceSHA256: hex.EncodeToString(sum[:]),
			Metadata: map[string]any{
				"accession":  e.accession,
				"version":    e.version,
				"division":   e.division,
				"organism":   strings.TrimSpace(e.organism.String()),
				"gc_content": gcContent(origin),
			},
		}
		for _, hint := range e.cdsHints {
			rec.Dependencies = append(rec.Dependencies, ingest.RecordDependency{
				OrgSlug:             "uniprot",
				EntrySlug:           strings.ToLower(hint.ProteinID),
				RequiredVersionSpec: "uniprot:" + strings.ToLower(hint.ProteinID),
				SourceType:          "protein",
			})
		}
		return rec
	}

	for scanner.Scan() {
		if limit >= 0 && len(out) >= limit {
			break
		}
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "LOCUS"):
			e = entry{}
			sec = sectionNone
			fields := strings.Fields(line)
			if len(fields) > 0 {
				e.locus = fields[1]
			}
			e.division = inferDivision(line)
		case strings.HasPrefix(line, "DEFINITION"):
			sec = sectionDefinition
			e.definition.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "DEFINITION")))
		case strings.HasPrefix(line, "ACCESSION"):
			sec = sectionAccession
			fields := strings.Fields(strings.TrimPrefix(line, "ACCESSION"))
			if len(fields) > 0 {
				e.accession = fields[0]
			}
		case strings.HasPrefix(line, "VERSION"):
			sec = sectionVersion
			fields := strings.Fields(strings.TrimPrefix(line, "VERSION"))
			if len(fields) > 0 {
				e.version = fields[0]
			}
		case strings.HasPrefix(line, "  ORGANISM") || strings.HasPrefix(line, "ORGANISM") || strings.HasPrefix(line, "SOURCE"):
			sec = sectionOrganism
			e.organism.WriteString(" " + strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "  ORGANISM"), "ORGANISM")))
		case strings.HasPrefix(line, "FEATURES"):
			sec = sectionFeatures
		case strings.HasPrefix(line, "ORIGIN"):
			sec = sectionOrigin
		case line == "//":
			out = append(out, flush())
			e = entry{}
			sec = sectionNone
		case sec == sectionDefinition && strings.HasPrefix(line, "            "):
			e.definition.WriteString(" " + strings.TrimSpace(line))
		case sec == sectionOrganism && strings.HasPrefix(line, "            "):
			e.organism.WriteString(" " + strings.TrimSpace(line))
		case sec == sectionFeatures:
			handleFeatureLine(&e, line)
		case sec == sectionOrigin:
			e.origin.WriteString(extractSequenceDigits(line))
		}
	}
	if err := scanner.Err(); err != nil {
		return out, 0, fmt.Errorf("genbank: scan error: %w", err)
	}
	return out, 0, nil
}

func handleFeatureLine(e *entry, line string) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "CDS ") || trimmed == "CDS" {
		e.cdsHints = append(e.cdsHints, CDSHint{})
		e.curCDS = &e.cdsHints[len(e.cdsHints)-1]
		return
	}
	if e.curCDS == nil {
		return
	}
	if m := proteinIDPattern.FindStringSubmatch(trimmed); m != nil {
		e.curCDS.ProteinID = m[1]
	}
	if m := taxonXrefPattern.FindStringSubmatch(trimmed); m != nil {
		n, _ := strconv.Atoi(m[1])
		e.curCDS.DBXrefTaxon = n
	}
	if m := codonStartPattern.FindStringSubmatch(trimmed); m != nil {
		n, _ := strconv.Atoi(m[1])
		e.curCDS.CodonStart = n
	}
	if strings.Contains(trimmed, "/translation=") {
		e.inTranslation = true
	}
	if e.inTranslation {
		if m := translationPattern.FindStringSubmatch(trimmed); m != nil {
			e.curCDS.Translation += m[1]
		} else {
			e.curCDS.Translation += strings.Trim(trimmed, `"`)
		}
		if strings.HasSuffix(trimmed, `"`) {
			e.inTranslation = false
		}
	}
}

// inferDivision reads the GenBank division code from the LOCUS line
// (spec.md §4.5: "division is inferred from the LOCUS line or the source
// filename"); it is the second-to-last field before the date.
func inferDivision(locusLine string) string {
	fields := strings.Fields(locusLine)
	if len(fields) < 3 {
		return ""
	}
	return fields[len(fields)-2]
}

func extractSequenceDigits(line string) string {
	fields := strings.Fields(line)
	if len(fields) <= 1 {
		return ""
	}
	// First field is the running base-pair counter; the rest is sequence.
	if _, err := strconv.Atoi(fields[0]); err != nil {
		return ""
	}
	return strings.Join(fields[1:], "")
}

func gcContent(seq string) float64 {
	if seq == "" {
		return 0
	}
	var gc int
	for _, c := range seq {
		if c == 'G' || c == 'C' {
			gc++
		}
	}
	return float64(gc) / float64(len(seq))
}
