package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseAgeAcceptsPlainDays(t *testing.T) {
	cutoff, err := parseAge("30")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().AddDate(0, 0, -30), cutoff, 5*time.Second)
}

func TestParseAgeAcceptsNaturalLanguage(t *testing.T) {
	cutoff, err := parseAge("3 weeks ago")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().AddDate(0, 0, -21), cutoff, time.Hour)
}

func TestParseAgeRejectsGarbage(t *testing.T) {
	_, err := parseAge("not a date at all")
	require.Error(t, err)
}

func TestRunCleanRequiresExactlyOneFlag(t *testing.T) {
	resetCleanFlags := func() {
		cleanAll, cleanUnused, cleanAge = false, false, ""
	}
	t.Cleanup(resetCleanFlags)

	resetCleanFlags()
	err := runClean(context.Background())
	require.Error(t, err)
	var ue *usageError
	require.ErrorAs(t, err, &ue)

	resetCleanFlags()
	cleanAll = true
	cleanUnused = true
	err = runClean(context.Background())
	require.Error(t, err)
	require.ErrorAs(t, err, &ue)
}
