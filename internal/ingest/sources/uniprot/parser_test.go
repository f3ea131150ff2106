package uniprot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const datFixture = `ID   INS_HUMAN               Reviewed;         110 AA.
AC   P01308; Q9UQU8;
DE   RecName: Full=Insulin;
GN   Name=INS;
OS   Homo sapiens.
OX   NCBI_TaxID=9606;
SQ   SEQUENCE   110 AA;
     MALWMRLLPL LALLALWGPD PAAAFVNQHL CGSHLVEALY LVCGERGFFY TPKTRREAED
     LQVGQVELGG GPGAGSLQPL ALEGSLQKRG IVEQCCTSIC SLYQLENYCN
//
ID   HBB_HUMAN               Reviewed;         146 AA.
AC   P68871;
DE   RecName: Full=Hemoglobin subunit beta;
GN   Name=HBB;
OS   Homo sapiens.
OX   NCBI_TaxID=9606;
SQ   SEQUENCE   146 AA;
     MVHLTPEEKS AVTALWGKVN VDEVGGEALG RLLVVYPWTQ RFFESFGDLS TPDAVMGNPK
     VKAHGKKVLG AFSDGLAHLD NLKGTFATLS ELHCDKLHVD PENFRLLGNV LVCVLAHHFG
     KEFTPPVQAA YQKVVAGVAN ALAHKYH
//
`

func TestParseTwoEntriesSmoke(t *testing.T) {
	p := New()
	recs, failed, err := p.Parse(strings.NewReader(datFixture), -1)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Zero(t, failed)

	assert.Equal(t, "p01308", recs[0].EntrySlug)
	assert.Equal(t, "Insulin", recs[0].Description)
	assert.NotEmpty(t, recs[0].SequenceSHA256)
	assert.Equal(t, "p68871", recs[1].EntrySlug)
}

func TestParseRespectsLimit(t *testing.T) {
	p := New()
	recs, _, err := p.Parse(strings.NewReader(datFixture), 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestParseSkipsMalformedSequence(t *testing.T) {
	bad := `ID   BAD_HUMAN               Reviewed;          10 AA.
AC   P00000;
DE   RecName: Full=Bad;
OS   Homo sapiens.
OX   NCBI_TaxID=9606;
SQ   SEQUENCE   10 AA;
     MAL123456
//
`
	p := New()
	recs, failed, err := p.Parse(strings.NewReader(bad), -1)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, 1, failed)
}

func TestParseInvalidTaxonIDYieldsParseErrorAndDropsRecord(t *testing.T) {
	bad := `ID   BAD_HUMAN               Reviewed;          10 AA.
AC   P00000;
DE   RecName: Full=Bad;
OS   Homo sapiens.
OX   NCBI_TaxID=not-a-number;
SQ   SEQUENCE   10 AA;
     MALWMRLLPL
//
`
	p := New()
	recs, failed, err := p.Parse(strings.NewReader(bad), -1)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, 1, failed)
}
