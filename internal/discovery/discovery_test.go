package discovery

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdp-project/bdp/internal/idver"
)

const uniprotListing = `-rw-r--r-- 1 ftp ftp 100 Jan 01 00:00 uniprot_sprot-2023_01.dat.gz
-rw-r--r-- 1 ftp ftp 100 Mar 01 00:00 uniprot_sprot-2023_03.dat.gz
-rw-r--r-- 1 ftp ftp 100 Feb 01 00:00 uniprot_sprot-2023_02.dat.gz
lrwxrwxrwx 1 ftp ftp  10 Mar 01 00:00 current_release -> uniprot_sprot-2023_03.dat.gz
`

func TestDiscoverSortedOrdersAscending(t *testing.T) {
	ctx := t.Context()
	disc := FTPListDiscoverer{
		Listing:       strings.NewReader(uniprotListing),
		EntryPattern:  regexp.MustCompile(`uniprot_sprot-(\d{4}_\d{2})\.dat\.gz`),
		CurrentMarker: "current_release",
	}
	src := Source{Discoverer: disc, Order: idver.OrderFor(idver.SourceUniProt)}

	sorted, err := DiscoverSorted(ctx, src)
	require.NoError(t, err)
	require.Len(t, sorted, 3)
	assert.Equal(t, "2023_01", sorted[0].ExternalVersion)
	assert.Equal(t, "2023_02", sorted[1].ExternalVersion)
	assert.Equal(t, "2023_03", sorted[2].ExternalVersion)
}

func TestFilterByDateRangeInclusiveBounds(t *testing.T) {
	ctx := t.Context()
	disc := FTPListDiscoverer{
		Listing:      strings.NewReader(uniprotListing),
		EntryPattern: regexp.MustCompile(`uniprot_sprot-(\d{4}_\d{2})\.dat\.gz`),
	}
	order := idver.OrderFor(idver.SourceUniProt)
	src := Source{Discoverer: disc, Order: order}

	sorted, err := DiscoverSorted(ctx, src)
	require.NoError(t, err)

	ranged, err := FilterByDateRange(sorted, order, "2023_01", "2023_02")
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	assert.Equal(t, "2023_01", ranged[0].ExternalVersion)
	assert.Equal(t, "2023_02", ranged[1].ExternalVersion)
}

func TestFilterNewSetDifference(t *testing.T) {
	candidates := []Candidate{{ExternalVersion: "2023_01"}, {ExternalVersion: "2023_02"}}
	already := map[string]struct{}{"2023_01": {}}

	fresh := FilterNew(candidates, already)
	require.Len(t, fresh, 1)
	assert.Equal(t, "2023_02", fresh[0].ExternalVersion)
}

func TestGetNewestAndOldest(t *testing.T) {
	sorted := []Candidate{{ExternalVersion: "2023_01"}, {ExternalVersion: "2023_02"}, {ExternalVersion: "2023_03"}}

	newest, ok := GetNewest(sorted)
	require.True(t, ok)
	assert.Equal(t, "2023_03", newest.ExternalVersion)

	oldest, ok := GetOldest(sorted)
	require.True(t, ok)
	assert.Equal(t, "2023_01", oldest.ExternalVersion)

	_, ok = GetNewest(nil)
	assert.False(t, ok)
}

func TestFixedEndpointDiscovererReturnsCurrent(t *testing.T) {
	disc := FixedEndpointDiscoverer{CurrentVersion: "95.0"}
	cands, err := disc.DiscoverAll(t.Context())
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.True(t, cands[0].IsCurrent)
	assert.Equal(t, "95.0", cands[0].ExternalVersion)
}

func TestParseNaturalDate(t *testing.T) {
	ref := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	out, err := ParseNaturalDate("3 months ago", ref, "2006_01")
	require.NoError(t, err)
	assert.Equal(t, "2024_03", out)
}

func TestHTMLAnchorDiscoverer(t *testing.T) {
	html := `<html><body>
<a href="go-basic-2024-01-01.obo">go-basic-2024-01-01.obo</a>
<a href="go-basic-2024-06-01.obo">go-basic-2024-06-01.obo</a>
</body></html>`
	disc := HTMLAnchorDiscoverer{
		HTML:        strings.NewReader(html),
		HrefPattern: regexp.MustCompile(`go-basic-(\d{4}-\d{2}-\d{2})\.obo`),
	}
	cands, err := disc.DiscoverAll(context.Background())
	require.NoError(t, err)
	require.Len(t, cands, 2)
}
