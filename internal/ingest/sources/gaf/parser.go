// Package gaf implements the GAF 2.2 annotation pipeline (spec.md §4.5):
// tab-delimited, 17 columns, one annotation record per line associating an
// upstream protein accession (col 2) with a GO term (col 5).
package gaf

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bdp-project/bdp/internal/ingest"
)

// Parser implements ingest.Pipeline for GAF 2.2 files.
type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Discover() ([]string, error) {
	return nil, fmt.Errorf("gaf: Discover requires an HTTP collaborator, not implemented in-process")
}

// Column indices per the GAF 2.2 spec (0-based).
const (
	colDBObjectID  = 1
	colQualifier   = 3
	colGOID        = 4
	colReference   = 5
	colEvidence    = 6
	colTaxon       = 12
)

// Parse reads a GAF stream and emits one Record per annotation line. Lines
// beginning with "!" are comments and skipped; short/malformed lines yield
// a per-record ParseError and are skipped, not fatal to the file.
func (p *Parser) Parse(r io.Reader, limit int) ([]ingest.Record, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var out []ingest.Record
	var failed int
	for scanner.Scan() {
		if limit >= 0 && len(out) >= limit {
			break
		}
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < colTaxon+1 {
			// Per-record ParseError: recorded by the caller's job counters,
			// not fatal to the rest of the file (spec.md §4.4).
			failed++
			continue
		}

		accession := cols[colDBObjectID]
		goID := cols[colGOID]
		out = append(out, ingest.Record{
			EntrySlug:   strings.ToLower(accession) + "-" + strings.ToLower(strings.ReplaceAll(goID, ":", "-")),
			EntryName:   accession + " / " + goID,
			SourceType:  "annotation",
			Metadata: map[string]any{
				"protein_accession": accession,
				"go_id":             goID,
				"qualifier":         cols[colQualifier],
				"reference":         cols[colReference],
				"evidence_code":     cols[colEvidence],
				"taxon":             cols[colTaxon],
			},
			Dependencies: []ingest.RecordDependency{
				{OrgSlug: "uniprot", EntrySlug: strings.ToLower(accession), RequiredVersionSpec: "annotates", SourceType: "protein"},
				{OrgSlug: "go", EntrySlug: strings.ToLower(strings.ReplaceAll(goID, ":", "-")), RequiredVersionSpec: "term", SourceType: "ontology"},
			},
		})
	}
	if err := scanner.Err(); err != nil {
		return out, failed, fmt.Errorf("gaf: scan error: %w", err)
	}
	return out, failed, nil
}
