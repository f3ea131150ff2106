package obo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oboFixture = `format-version: 1.2

[Term]
id: GO:0008150
name: biological_process
namespace: biological_process
def: "Any process." [GOC:pdt]

[Term]
id: GO:0009987
name: cellular process
namespace: biological_process
def: "Any process carried out at the cellular level." [GOC:go_curators]
is_a: GO:0008150 ! biological_process
synonym: "cellular physiological process" EXACT []
`

func TestParseOBOStanzas(t *testing.T) {
	p := New()
	recs, _, err := p.Parse(strings.NewReader(oboFixture), -1)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "go-0008150", recs[0].EntrySlug)
	assert.Equal(t, "biological_process", recs[0].EntryName)

	assert.Equal(t, "go-0009987", recs[1].EntrySlug)
	require.Len(t, recs[1].Dependencies, 1)
	assert.Equal(t, "go-0008150", recs[1].Dependencies[0].EntrySlug)
	assert.Equal(t, "is_a", recs[1].Dependencies[0].RequiredVersionSpec)
}
