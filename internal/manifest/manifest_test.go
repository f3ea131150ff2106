package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdp-project/bdp/internal/resolve"
)

const bdpYml = `name: my-pipeline
version: "1.0"
sources:
  - uniprot:p01308@1.0-fasta
  - genbank:nm-000207

tools:
  - samtools:samtools

custom_field: keep-me
`

func TestParseManifestReadsKnownKeys(t *testing.T) {
	doc, err := ParseManifest([]byte(bdpYml))
	require.NoError(t, err)

	assert.Equal(t, "my-pipeline", doc.Name)
	assert.Equal(t, "1.0", doc.Version)
	require.Len(t, doc.Sources, 2)
	assert.Equal(t, "uniprot:p01308@1.0-fasta", doc.Sources[0].Spec)
	assert.Equal(t, "genbank:nm-000207", doc.Sources[1].Spec)
	require.Len(t, doc.Tools, 1)
	assert.Equal(t, "samtools:samtools", doc.Tools[0].Spec)
}

func TestMarshalPreservesUnknownTopLevelKey(t *testing.T) {
	doc, err := ParseManifest([]byte(bdpYml))
	require.NoError(t, err)

	out, err := doc.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), "custom_field: keep-me")
}

func TestMarshalReflectsMutations(t *testing.T) {
	doc, err := ParseManifest([]byte(bdpYml))
	require.NoError(t, err)

	doc.Sources = append(doc.Sources, resolve.ManifestEntry{Spec: "ncbitaxonomy:9606"})
	out, err := doc.Marshal()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(out), "ncbitaxonomy:9606"))
}

func TestParseManifestToleratesEmptyDocument(t *testing.T) {
	doc, err := ParseManifest([]byte("  \n\n"))
	require.NoError(t, err)
	assert.Empty(t, doc.Name)
	assert.Empty(t, doc.Sources)
}
