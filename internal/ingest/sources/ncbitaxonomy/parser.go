// Package ncbitaxonomy implements the NCBI taxdump pipeline (spec.md
// §4.5): rankedlineage.dmp, merged.dmp, and delnodes.dmp from a tar.gz,
// fields delimited by "\t|\t".
package ncbitaxonomy

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bdp-project/bdp/internal/ingest"
)

// MergedMarker is stored under the "lineage_mark" metadata key of the
// record emitted for a taxon that merged.dmp maps into another. That record
// carries no "lineage" key, so no lineage string is prefixed with the
// marker; the taxon's entry is kept, not removed.
const MergedMarker = "[MERGED]"

// DeletedMarker is the equivalent "lineage_mark" value for delnodes.dmp
// entries.
const DeletedMarker = "[DELETED]"

// Parser implements ingest.Pipeline for NCBI taxdump archives.
type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Discover() ([]string, error) {
	return nil, fmt.Errorf("ncbitaxonomy: Discover requires an FTP collaborator, not implemented in-process")
}

// Parse reads a tar.gz stream and emits taxonomy records from
// rankedlineage.dmp plus deprecation-marker records from merged.dmp and
// delnodes.dmp. limit, when non-negative, bounds the number of
// rankedlineage records parsed.
func (p *Parser) Parse(r io.Reader, limit int) ([]ingest.Record, int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("ncbitaxonomy: gzip: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	var out []ingest.Record
	var failed int

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, failed, fmt.Errorf("ncbitaxonomy: tar: %w", err)
		}

		switch {
		case strings.HasSuffix(hdr.Name, "rankedlineage.dmp"):
			recs, recFailed, err := parseRankedLineage(tr, limit-len(out))
			if err != nil {
				return out, failed, err
			}
			out = append(out, recs...)
			failed += recFailed
		case strings.HasSuffix(hdr.Name, "merged.dmp"):
			recs, err := parseMerged(tr)
			if err != nil {
				return out, failed, err
			}
			out = append(out, recs...)
		case strings.HasSuffix(hdr.Name, "delnodes.dmp"):
			recs, err := parseDeleted(tr)
			if err != nil {
				return out, failed, err
			}
			out = append(out, recs...)
		}
	}
	return out, failed, nil
}

func dmpFields(line string) []string {
	line = strings.TrimSuffix(line, "\t|")
	return strings.Split(line, "\t|\t")
}

func parseRankedLineage(r io.Reader, limit int) ([]ingest.Record, int, error) {
	var out []ingest.Record
	var failed int
	for line := range linesOf(r) {
		if limit >= 0 && len(out) >= limit {
			break
		}
		fields := dmpFields(line)
		if len(fields) < 2 {
			failed++
			continue
		}
		taxID, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			failed++ // per-record parse issue, skip rather than abort the file
			continue
		}
		name := strings.TrimSpace(fields[1])
		var lineageParts []string
		for _, f := range fields[2:] {
			f = strings.TrimSpace(f)
			if f != "" {
				lineageParts = append(lineageParts, f)
			}
		}
		lineage := strings.Join(lineageParts, "; ")

		out = append(out, ingest.Record{
			EntrySlug:   strconv.Itoa(taxID),
			EntryName:   name,
			Description: name,
			SourceType:  "taxonomy",
			Metadata: map[string]any{
				"taxon_id": taxID,
				"lineage":  lineage,
			},
		})
	}
	return out, failed, nil
}

func parseMerged(r io.Reader) ([]ingest.Record, error) {
	var out []ingest.Record
	for line := range linesOf(r) {
		fields := dmpFields(line)
		if len(fields) < 2 {
			continue
		}
		oldID, err1 := strconv.Atoi(strings.TrimSpace(fields[0]))
		newID, err2 := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, ingest.Record{
			EntrySlug:  strconv.Itoa(oldID),
			SourceType: "taxonomy",
			Metadata: map[string]any{
				"taxon_id":          oldID,
				"merged_into":       newID,
				"lineage_mark":      MergedMarker,
				"merged_or_deleted": true,
			},
		})
	}
	return out, nil
}

func parseDeleted(r io.Reader) ([]ingest.Record, error) {
	var out []ingest.Record
	for line := range linesOf(r) {
		fields := dmpFields(line)
		if len(fields) < 1 {
			continue
		}
		taxID, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			continue
		}
		out = append(out, ingest.Record{
			EntrySlug:  strconv.Itoa(taxID),
			SourceType: "taxonomy",
			Metadata: map[string]any{
				"taxon_id":          taxID,
				"deleted":           true,
				"lineage_mark":      DeletedMarker,
				"merged_or_deleted": true,
			},
		})
	}
	return out, nil
}
