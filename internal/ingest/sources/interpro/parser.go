// Package interpro implements the InterPro pipeline (spec.md §4.5): same
// discover/parse/store orchestration as the other sources, over a
// streaming XML decoder instead of a line-oriented format.
package interpro

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/bdp-project/bdp/internal/ingest"
)

// Parser implements ingest.Pipeline for InterPro's interpro.xml export.
type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Discover() ([]string, error) {
	return nil, fmt.Errorf("interpro: Discover requires an HTTP collaborator, not implemented in-process")
}

type xmlInterpro struct {
	XMLName xml.Name `xml:"interprodb"`
	Entries []xmlEntry `xml:"interpro"`
}

type xmlEntry struct {
	ID          string   `xml:"id,attr"`
	Type        string   `xml:"type,attr"`
	Name        string   `xml:"name"`
	Abstract    string   `xml:"abstract"`
	MemberList  []struct{ DBKey string `xml:"dbkey,attr"` } `xml:"member_list>db_xref"`
	ParentTypes []xmlParent `xml:"parent_list>rel_ref"`
}

type xmlParent struct {
	IPRRef string `xml:"ipr_ref,attr"`
}

// Parse decodes an InterPro XML stream into one Record per <interpro>
// element. The parent_list rel_ref edges become Dependencies.
func (p *Parser) Parse(r io.Reader, limit int) ([]ingest.Record, int, error) {
	var doc xmlInterpro
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, 0, fmt.Errorf("interpro: xml decode: %w", err)
	}

	var out []ingest.Record
	for _, e := range doc.Entries {
		if limit >= 0 && len(out) >= limit {
			break
		}
		rec := ingest.Record{
			EntrySlug:   toSlug(e.ID),
			EntryName:   e.Name,
			Description: e.Abstract,
			SourceType:  "annotation",
			Metadata: map[string]any{
				"interpro_id": e.ID,
				"entry_type":  e.Type,
			},
		}
		for _, parent := range e.ParentTypes {
			rec.Dependencies = append(rec.Dependencies, ingest.RecordDependency{
				OrgSlug: "interpro", EntrySlug: toSlug(parent.IPRRef), RequiredVersionSpec: "parent",
			})
		}
		out = append(out, rec)
	}
	return out, 0, nil
}

func toSlug(iprID string) string {
	out := make([]rune, 0, len(iprID))
	for _, r := range iprID {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r-'A'+'a')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}
