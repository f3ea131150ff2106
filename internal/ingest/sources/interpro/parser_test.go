package interpro

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const interproFixture = `<?xml version="1.0" encoding="UTF-8"?>
<interprodb>
  <interpro id="IPR000001" type="Domain">
    <name>Kringle</name>
    <abstract>Kringle domains are autonomous structural domains.</abstract>
    <member_list>
      <db_xref protein_count="120" db="PROSITE" dbkey="PS00020"/>
    </member_list>
  </interpro>
  <interpro id="IPR000002" type="Family">
    <name>Insulin family</name>
    <abstract>Members of the insulin/IGF/relaxin family.</abstract>
    <parent_list>
      <rel_ref ipr_ref="IPR000001"/>
    </parent_list>
  </interpro>
</interprodb>
`

func TestParseInterProEntries(t *testing.T) {
	p := New()
	recs, _, err := p.Parse(strings.NewReader(interproFixture), -1)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	first := recs[0]
	assert.Equal(t, "ipr000001", first.EntrySlug)
	assert.Equal(t, "Kringle", first.EntryName)
	assert.Equal(t, "Domain", first.Metadata["entry_type"])
	assert.Empty(t, first.Dependencies)

	second := recs[1]
	assert.Equal(t, "ipr000002", second.EntrySlug)
	require.Len(t, second.Dependencies, 1)
	assert.Equal(t, "ipr000001", second.Dependencies[0].EntrySlug)
	assert.Equal(t, "parent", second.Dependencies[0].RequiredVersionSpec)
}

func TestParseInterProRespectsLimit(t *testing.T) {
	p := New()
	recs, _, err := p.Parse(strings.NewReader(interproFixture), 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
