package idver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniProtOrderingByDate(t *testing.T) {
	ord := OrderFor(SourceUniProt)
	k1, err := ord.Key("2024_01")
	require.NoError(t, err)
	k2, err := ord.Key("2024_02")
	require.NoError(t, err)
	assert.Less(t, k1, k2)
}

func TestGenBankOrderingByReleaseNumber(t *testing.T) {
	ord := OrderFor(SourceGenBank)
	k1, err := ord.Key("GB_Release_256.0")
	require.NoError(t, err)
	k2, err := ord.Key("GB_Release_257.0")
	require.NoError(t, err)
	assert.Less(t, k1, k2)
}

func TestInterProOrderingByMajorMinor(t *testing.T) {
	ord := OrderFor(SourceInterPro)
	k1, err := ord.Key("99.0")
	require.NoError(t, err)
	k2, err := ord.Key("100.0")
	require.NoError(t, err)
	assert.Less(t, k1, k2)
}

func TestOntologyOrderingByISODate(t *testing.T) {
	ord := OrderFor(SourceOntology)
	k1, err := ord.Key("2025-09-08")
	require.NoError(t, err)
	k2, err := ord.Key("2025-10-01")
	require.NoError(t, err)
	assert.Less(t, k1, k2)
}

func TestOrderingRejectsGarbage(t *testing.T) {
	_, err := OrderFor(SourceUniProt).Key("not-a-date")
	require.Error(t, err)
}
