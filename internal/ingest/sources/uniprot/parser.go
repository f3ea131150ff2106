// Package uniprot implements the UniProt DAT flat-file pipeline (spec.md
// §4.5): a streaming, line-oriented parser over the block-marker format
// (ID, AC, DE, GN, OS, OX, SQ, citation blocks, terminated by "//").
package uniprot

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bdp-project/bdp/internal/ingest"
)

// Record is one parsed UniProt entry prior to normalization into an
// ingest.Record.
type Record struct {
	ID             string
	Accessions     []string
	Description    string
	GeneName       string
	Organism       string
	TaxonID        int
	TaxonIDErr     error
	Sequence       string
	SequenceSHA256 string
}

// validResidues is the 20 standard amino acid one-letter codes plus the
// ambiguity/rare codes UniProt itself emits (B, Z, X, U, O).
const validResidues = "ACDEFGHIKLMNPQRSTVWYBZXUO"

func isValidSequence(seq string) bool {
	for _, r := range seq {
		if !strings.ContainsRune(validResidues, r) {
			return false
		}
	}
	return true
}

// Parser implements ingest.Pipeline for UniProt DAT files.
type Parser struct{}

func New() *Parser { return &Parser{} }

// Discover is contract-only here: real discovery walks UniProt's FTP
// release index, a byte-stream/network collaborator out of scope per
// spec.md §1. Callers supply external versions from that collaborator.
func (p *Parser) Discover() ([]string, error) {
	return nil, fmt.Errorf("uniprot: Discover requires an FTP collaborator, not implemented in-process")
}

// Parse reads a DAT stream and emits one Record per "//" terminator, per
// spec.md §4.5. Malformed sequences and invalid taxonomy ids each yield a
// per-record ParseError via ingest.NewParseError; the entry is dropped,
// not the whole stream.
func (p *Parser) Parse(r io.Reader, limit int) ([]ingest.Record, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var out []ingest.Record
	var cur Record
	var seqLines []string
	var failed int
	inSeq := false

	flush := func() (ingest.Record, bool, error) {
		if cur.ID == "" {
			return ingest.Record{}, false, nil
		}
		if cur.TaxonIDErr != nil {
			return ingest.Record{}, false, ingest.NewParseError(
				fmt.Errorf("entry %s: invalid NCBI taxonomy id: %v", cur.ID, cur.TaxonIDErr), "uniprot parse")
		}
		seq := strings.Join(seqLines, "")
		if seq != "" && !isValidSequence(seq) {
			return ingest.Record{}, false, ingest.NewParseError(
				fmt.Errorf("entry %s: sequence contains non-amino-acid characters", cur.ID), "uniprot parse")
		}
		sum := sha256.Sum256([]byte(seq))
		cur.Sequence = seq
		cur.SequenceSHA256 = hex.EncodeToString(sum[:])

		accession := cur.ID
		if len(cur.Accessions) > 0 {
			accession = cur.Accessions[0]
		}
		rec := ingest.Record{
			EntrySlug:      strings.ToLower(accession),
			EntryName:      cur.ID,
			Description:    cur.Description,
			SourceType:     "protein",
			SequenceSHA256: cur.SequenceSHA256,
			Metadata: map[string]any{
				"accession":  accession,
				"gene_name":  cur.GeneName,
				"organism":   cur.Organism,
				"taxon_id":   cur.TaxonID,
				"is_stub":    false,
			},
		}
		return rec, true, nil
	}

	for scanner.Scan() {
		if limit >= 0 && len(out) >= limit {
			break
		}
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "ID   "):
			cur = Record{ID: firstField(line[5:])}
			seqLines = nil
			inSeq = false
		case strings.HasPrefix(line, "AC   "):
			for _, acc := range strings.Split(strings.TrimSuffix(strings.TrimSpace(line[5:]), ";"), "; ") {
				acc = strings.TrimSuffix(strings.TrimSpace(acc), ";")
				if acc != "" {
					cur.Accessions = append(cur.Accessions, acc)
				}
			}
		case strings.HasPrefix(line, "DE   "):
			if cur.Description != "" {
				cur.Description += " "
			}
			cur.Description += strings.TrimSpace(strings.TrimPrefix(line[5:], "RecName: Full="))
			cur.Description = strings.TrimSuffix(cur.Description, ";")
		case strings.HasPrefix(line, "GN   "):
			cur.GeneName = parseGeneName(line[5:])
		case strings.HasPrefix(line, "OS   "):
			if cur.Organism != "" {
				cur.Organism += " "
			}
			cur.Organism += strings.TrimSuffix(strings.TrimSpace(line[5:]), ".")
		case strings.HasPrefix(line, "OX   "):
			// Invalid taxonomy ids are a per-record ParseError (spec.md
			// §4.5): the entry is dropped at "//", not silently emitted
			// with a zero TaxonID.
			taxID, err := parseTaxonID(line[5:])
			if err != nil {
				cur.TaxonIDErr = err
				continue
			}
			cur.TaxonID = taxID
		case strings.HasPrefix(line, "SQ   "):
			inSeq = true
		case line == "//":
			rec, ok, err := flush()
			if err != nil {
				// Drop this record, don't abort the stream.
				failed++
				cur = Record{}
				seqLines = nil
				inSeq = false
				continue
			}
			if ok {
				out = append(out, rec)
			}
			cur = Record{}
			seqLines = nil
			inSeq = false
		case inSeq && strings.HasPrefix(line, "     "):
			seqLines = append(seqLines, strings.ReplaceAll(strings.TrimSpace(line), " ", ""))
		}
	}
	if err := scanner.Err(); err != nil {
		return out, failed, fmt.Errorf("uniprot: scan error: %w", err)
	}
	return out, failed, nil
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func parseGeneName(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "Name="); idx >= 0 {
		rest := s[idx+len("Name="):]
		if semi := strings.IndexAny(rest, ";{"); semi >= 0 {
			rest = rest[:semi]
		}
		return strings.TrimSpace(rest)
	}
	return ""
}

func parseTaxonID(s string) (int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "NCBI_TaxID=")
	if semi := strings.IndexByte(s, ';'); semi >= 0 {
		s = s[:semi]
	}
	return strconv.Atoi(strings.TrimSpace(s))
}
