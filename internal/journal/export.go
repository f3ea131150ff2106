package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"gopkg.in/yaml.v3"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// Format names the regulatory export shapes spec.md §4.11 requires.
type Format string

const (
	FormatFDA  Format = "fda"
	FormatNIH  Format = "nih"
	FormatEMA  Format = "ema"
	FormatDAS  Format = "das"
	FormatJSON Format = "json"
)

// Export renders the journal's full chain into the requested regulatory
// format. Exports are read-only: nothing here mutates audit_journal.
func (j *Journal) Export(ctx context.Context, format Format) ([]byte, error) {
	entries, err := j.List(ctx)
	if err != nil {
		return nil, err
	}
	verify, err := j.Verify(ctx)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatFDA:
		return exportFDA(entries, verify)
	case FormatNIH:
		return exportNIH(entries)
	case FormatEMA:
		return exportEMA(entries, verify)
	case FormatDAS:
		return exportDAS(entries), nil
	case FormatJSON:
		return exportRawJSON(entries)
	default:
		return nil, bdperr.New(bdperr.KindValidation, "unknown export format").WithField(string(format))
	}
}

// fdaDocument is the JSON shape FDA submissions expect: the event list
// plus an explicit verification block so a reviewer doesn't need to
// re-derive chain integrity out of band.
type fdaDocument struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Events      []fdaEvent       `json:"events"`
	Verification fdaVerification `json:"verification"`
}

type fdaEvent struct {
	Seq       int64          `json:"seq"`
	Timestamp time.Time      `json:"timestamp"`
	MachineID string         `json:"machine_id"`
	Action    string         `json:"action"`
	Target    string         `json:"target"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	PrevHash  string         `json:"prev_hash"`
	Hash      string         `json:"hash"`
}

type fdaVerification struct {
	ChainIntact   bool  `json:"chain_intact"`
	EntryCount    int   `json:"entry_count"`
	FirstMismatch int64 `json:"first_mismatch_seq,omitempty"`
}

func exportFDA(entries []Entry, verify VerifyResult) ([]byte, error) {
	doc := fdaDocument{
		GeneratedAt: time.Now().UTC(),
		Verification: fdaVerification{
			ChainIntact: verify.OK, EntryCount: verify.Entries, FirstMismatch: verify.FirstMismatch,
		},
	}
	for _, e := range entries {
		doc.Events = append(doc.Events, fdaEvent{
			Seq: e.Seq, Timestamp: e.Timestamp, MachineID: e.MachineID,
			Action: e.Action, Target: e.Target, Metadata: e.Metadata,
			PrevHash: e.PrevHash, Hash: e.Hash,
		})
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "marshal FDA export")
	}
	return out, nil
}

// exportNIH renders a Markdown Data Availability Statement, then passes
// it through glamour so `bdp audit export --format nih` can print a
// terminal-styled rendering directly (the teacher's chat renderer uses
// glamour.NewTermRenderer the same way for assistant output).
func exportNIH(entries []Entry) ([]byte, error) {
	var md strings.Builder
	md.WriteString("# Data Availability Statement\n\n")
	md.WriteString(fmt.Sprintf("This study used %d dataset(s), tracked via an audited, hash-chained retrieval log:\n\n", countInstalls(entries)))
	md.WriteString("| Dataset | Version | Installed | Event |\n")
	md.WriteString("|---|---|---|---|\n")
	for _, e := range entries {
		if e.Action != "install" {
			continue
		}
		version, _ := e.Metadata["external_version"].(string)
		md.WriteString(fmt.Sprintf("| %s | %s | %s | seq %d |\n",
			e.Target, version, e.Timestamp.Format("2006-01-02"), e.Seq))
	}
	md.WriteString("\nFull provenance (all resolve/fetch/verify/install events) is available on request as a signed audit export.\n")

	rendered, err := glamour.Render(md.String(), "notty")
	if err != nil {
		// glamour rendering is presentational only; fall back to the raw
		// markdown so the export never fails because of a terminal styling issue.
		return []byte(md.String()), nil
	}
	return []byte(rendered), nil
}

func countInstalls(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if e.Action == "install" {
			n++
		}
	}
	return n
}

// alcoaEvent maps one journal entry onto FDA's ALCOA++ data-integrity
// principles (Attributable, Legible, Contemporaneous, Original,
// Accurate, plus Complete/Consistent/Enduring/Available) as EMA
// submissions expect them itemized.
type alcoaEvent struct {
	Attributable   string         `yaml:"attributable"`
	Legible        string         `yaml:"legible"`
	Contemporaneous string        `yaml:"contemporaneous"`
	Original       string         `yaml:"original"`
	Accurate       string         `yaml:"accurate"`
	Action         string         `yaml:"action"`
	Target         string         `yaml:"target"`
	Metadata       map[string]any `yaml:"metadata,omitempty"`
}

type emaDocument struct {
	GeneratedAt time.Time    `yaml:"generated_at"`
	ChainIntact bool         `yaml:"chain_intact"`
	Events      []alcoaEvent `yaml:"events"`
}

func exportEMA(entries []Entry, verify VerifyResult) ([]byte, error) {
	doc := emaDocument{GeneratedAt: time.Now().UTC(), ChainIntact: verify.OK}
	for _, e := range entries {
		doc.Events = append(doc.Events, alcoaEvent{
			Attributable:    e.MachineID,
			Legible:         "utf-8 json metadata, human-readable action/target",
			Contemporaneous: e.Timestamp.Format(time.RFC3339),
			Original:        fmt.Sprintf("seq %d, hash %s", e.Seq, e.Hash),
			Accurate:        fmt.Sprintf("chained to prev_hash %s", e.PrevHash),
			Action:          e.Action,
			Target:          e.Target,
			Metadata:        e.Metadata,
		})
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "marshal EMA export")
	}
	return out, nil
}

// exportDAS renders the plain-text citation form some journals require
// inline in a manuscript's Data Availability Statement.
func exportDAS(entries []Entry) []byte {
	var b strings.Builder
	for _, e := range entries {
		if e.Action != "install" {
			continue
		}
		version, _ := e.Metadata["external_version"].(string)
		sha, _ := e.Metadata["sha256"].(string)
		b.WriteString(fmt.Sprintf("%s, version %s (retrieved %s, sha256:%s)\n",
			e.Target, version, e.Timestamp.Format("2006-01-02"), shortHash(sha)))
	}
	return []byte(b.String())
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func exportRawJSON(entries []Entry) ([]byte, error) {
	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "marshal raw JSON export")
	}
	return out, nil
}
