package clistyle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusLinePicksCorrectSymbol(t *testing.T) {
	require.Contains(t, StatusLine(true, false, "uniprot/p01308"), "✓")
	require.Contains(t, StatusLine(false, true, "uniprot/p01308"), "!")
	require.Contains(t, StatusLine(false, false, "uniprot/p01308"), "✗")
}

func TestTableIncludesHeadersAndRows(t *testing.T) {
	out := Table([]string{"SOURCE", "VERSION"}, [][]string{{"uniprot/p01308", "2024_01"}})
	require.True(t, strings.Contains(out, "SOURCE"))
	require.True(t, strings.Contains(out, "uniprot/p01308"))
}
