// Package obo implements the OBO ontology pipeline (spec.md §4.5):
// stanza-based parsing of "[Term]" blocks with id/name/def/is_a/
// relationship/synonym/alt_id/namespace fields.
package obo

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/bdp-project/bdp/internal/ingest"
)

// Parser implements ingest.Pipeline for OBO files.
type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Discover() ([]string, error) {
	return nil, fmt.Errorf("obo: Discover requires an HTTP collaborator, not implemented in-process")
}

var defPattern = regexp.MustCompile(`^"(.*)"`)

type stanza struct {
	id           string
	name         string
	def          string
	namespace    string
	isA          []string
	relationship []string
	synonym      []string
	altID        []string
	obsolete     bool
}

// Parse reads an OBO stream and emits one Record per [Term] stanza, with
// is_a/relationship edges folded into Dependencies (the graph-of-edges
// representation spec.md §9 calls for).
func (p *Parser) Parse(r io.Reader, limit int) ([]ingest.Record, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var out []ingest.Record
	var cur *stanza
	inTerm := false

	flush := func() {
		if cur == nil || cur.id == "" {
			return
		}
		rec := ingest.Record{
			EntrySlug:   sanitizeGoID(cur.id),
			EntryName:   cur.name,
			Description: cur.def,
			SourceType:  "ontology",
			Metadata: map[string]any{
				"go_id":       cur.id,
				"namespace":   cur.namespace,
				"def":         cur.def,
				"synonyms":    cur.synonym,
				"alt_ids":     cur.altID,
				"is_obsolete": cur.obsolete,
			},
		}
		for _, parent := range cur.isA {
			rec.Dependencies = append(rec.Dependencies, ingest.RecordDependency{
				OrgSlug: "go", EntrySlug: sanitizeGoID(parent), RequiredVersionSpec: "is_a",
			})
		}
		for _, rel := range cur.relationship {
			fields := strings.Fields(rel)
			if len(fields) < 2 {
				continue
			}
			rec.Dependencies = append(rec.Dependencies, ingest.RecordDependency{
				OrgSlug: "go", EntrySlug: sanitizeGoID(fields[1]), RequiredVersionSpec: fields[0],
			})
		}
		out = append(out, rec)
	}

	for scanner.Scan() {
		if limit >= 0 && len(out) >= limit {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "[Term]":
			flush()
			cur = &stanza{}
			inTerm = true
		case line == "" || strings.HasPrefix(line, "[") && line != "[Term]":
			flush()
			cur = nil
			inTerm = false
		case !inTerm:
			continue
		case strings.HasPrefix(line, "id: "):
			cur.id = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "name: "):
			cur.name = strings.TrimPrefix(line, "name: ")
		case strings.HasPrefix(line, "namespace: "):
			cur.namespace = strings.TrimPrefix(line, "namespace: ")
		case strings.HasPrefix(line, "def: "):
			if m := defPattern.FindStringSubmatch(strings.TrimPrefix(line, "def: ")); m != nil {
				cur.def = m[1]
			}
		case strings.HasPrefix(line, "is_a: "):
			val := strings.TrimPrefix(line, "is_a: ")
			cur.isA = append(cur.isA, strings.TrimSpace(strings.SplitN(val, "!", 2)[0]))
		case strings.HasPrefix(line, "relationship: "):
			cur.relationship = append(cur.relationship, strings.TrimPrefix(line, "relationship: "))
		case strings.HasPrefix(line, "synonym: "):
			cur.synonym = append(cur.synonym, strings.TrimPrefix(line, "synonym: "))
		case strings.HasPrefix(line, "alt_id: "):
			cur.altID = append(cur.altID, strings.TrimPrefix(line, "alt_id: "))
		case line == "is_obsolete: true":
			cur.obsolete = true
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return out, 0, fmt.Errorf("obo: scan error: %w", err)
	}
	return out, 0, nil
}

func sanitizeGoID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.ToLower(id)
	return strings.ReplaceAll(id, ":", "-")
}
