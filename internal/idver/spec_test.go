package idver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdp-project/bdp/internal/bdperr"
)

func TestParseSpecFullForm(t *testing.T) {
	s, err := ParseSpec("uniprot:p01308@1.0-fasta")
	require.NoError(t, err)
	assert.Equal(t, "uniprot", s.Org)
	assert.Equal(t, "p01308", s.Name)
	assert.Equal(t, "1.0", s.Version)
	assert.Equal(t, "fasta", s.Format)
	assert.Equal(t, "uniprot:p01308@1.0-fasta", s.String())
}

func TestParseSpecVariants(t *testing.T) {
	cases := map[string]Spec{
		"uniprot:p01308":              {Org: "uniprot", Name: "p01308"},
		"uniprot:p01308@1.0":          {Org: "uniprot", Name: "p01308", Version: "1.0"},
		"uniprot:p01308-fasta":        {Org: "uniprot", Name: "p01308", Format: "fasta"},
		"uniprot:p01308@1.0-fasta":    {Org: "uniprot", Name: "p01308", Version: "1.0", Format: "fasta"},
		"ncbi:9606-taxonomy@2.1":      {Org: "ncbi", Name: "9606", Version: "2.1", Format: "taxonomy"},
	}
	for raw, want := range cases {
		got, err := ParseSpec(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want.Org, got.Org, raw)
		assert.Equal(t, want.Name, got.Name, raw)
		assert.Equal(t, want.Version, got.Version, raw)
		assert.Equal(t, want.Format, got.Format, raw)
	}
}

func TestParseSpecInvalid(t *testing.T) {
	_, err := ParseSpec("no-colon-here")
	require.Error(t, err)
	assert.Equal(t, bdperr.KindValidation, bdperr.KindOf(err))

	_, err = ParseSpec("UniProt:P01308") // uppercase slug rejected
	require.Error(t, err)

	_, err = ParseSpec("uniprot:p01308@not-a-version-fasta")
	require.Error(t, err)
}

func TestVersionCompareAndString(t *testing.T) {
	v1 := Version{Major: 1, Minor: 3}
	v2 := Version{Major: 1, Minor: 4}
	assert.Equal(t, -1, v1.Compare(v2))
	assert.Equal(t, 1, v2.Compare(v1))
	assert.Equal(t, 0, v1.Compare(v1))
	assert.Equal(t, "1.3", v1.String())

	p := Version{Major: 2, Minor: 0, Patch: 1, HasPatch: true}
	assert.Equal(t, "2.0.1", p.String())
}

func TestParseVersionRejectsGarbage(t *testing.T) {
	_, err := ParseVersion("1")
	require.Error(t, err)
	_, err = ParseVersion("a.b")
	require.Error(t, err)
}
