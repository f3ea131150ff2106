package ncbitaxonomy

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTarGz(t *testing.T, files [][2]string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, f := range files {
		name, content := f[0], f[1]
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Size: int64(len(content)), Mode: 0o644}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return &buf
}

func TestParseRankedLineageMergedDeleted(t *testing.T) {
	archive := buildTarGz(t, [][2]string{
		{"rankedlineage.dmp", "9606\t|\tHomo sapiens\t|\t\t|\tHomo\t|\tHominidae\t|\tPrimates\t|\tMammalia\t|\tChordata\t|\tMetazoa\t|\tEukaryota\t|\n"},
		{"merged.dmp", "12345\t|\t9606\t|\n"},
		{"delnodes.dmp", "99999\t|\n"},
	})

	p := New()
	recs, _, err := p.Parse(archive, -1)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "9606", recs[0].EntrySlug)
	assert.Equal(t, "12345", recs[1].EntrySlug)
	assert.Equal(t, 9606, recs[1].Metadata["merged_into"])
	assert.Equal(t, "99999", recs[2].EntrySlug)
	assert.Equal(t, true, recs[2].Metadata["deleted"])
}
