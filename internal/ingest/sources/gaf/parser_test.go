package gaf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gafFixture = "!gaf-version: 2.2\n" +
	"UniProtKB\tP01308\tINS\t\tGO:0005615\tGO_REF:0000043\tIEA\t\tC\tInsulin\tINS\tprotein\ttaxon:9606\t20240101\tUniProt\t\t\n"

func TestParseGAFLine(t *testing.T) {
	p := New()
	recs, failed, err := p.Parse(strings.NewReader(gafFixture), -1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Zero(t, failed)

	r := recs[0]
	assert.Equal(t, "p01308-go-0005615", r.EntrySlug)
	assert.Equal(t, "P01308", r.Metadata["protein_accession"])
	assert.Equal(t, "GO:0005615", r.Metadata["go_id"])
	assert.Equal(t, "IEA", r.Metadata["evidence_code"])
	require.Len(t, r.Dependencies, 2)
}

func TestParseGAFSkipsCommentsAndShortLines(t *testing.T) {
	p := New()
	recs, failed, err := p.Parse(strings.NewReader("!comment\nshort\tline\n"), -1)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, 1, failed)
}
