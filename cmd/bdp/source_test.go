package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupProjectDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := projectDir
	oldJSON := jsonOutput
	projectDir = dir
	jsonOutput = false
	t.Cleanup(func() {
		projectDir = old
		jsonOutput = oldJSON
	})
	return dir
}

func writeManifest(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bdp.yml"), []byte(body), 0o644))
}

func TestRunSourceAddAppendsNewSpec(t *testing.T) {
	dir := setupProjectDir(t)
	writeManifest(t, dir, "name: demo\nversion: \"0.1.0\"\nsources: []\n")

	require.NoError(t, runSourceAdd("uniprot:P01308-fasta@1.0"))

	doc, err := loadManifestDoc()
	require.NoError(t, err)
	require.Len(t, doc.Sources, 1)
	require.Equal(t, "uniprot:P01308-fasta@1.0", doc.Sources[0].Spec)
}

func TestRunSourceAddRejectsDuplicate(t *testing.T) {
	dir := setupProjectDir(t)
	writeManifest(t, dir, "name: demo\nversion: \"0.1.0\"\nsources:\n  - uniprot:P01308-fasta@1.0\n")

	err := runSourceAdd("uniprot:P01308-fasta@1.0")
	require.Error(t, err)
	var ue *usageError
	require.ErrorAs(t, err, &ue)
}

func TestRunSourceRemoveDropsMatchingSpec(t *testing.T) {
	dir := setupProjectDir(t)
	writeManifest(t, dir, "name: demo\nversion: \"0.1.0\"\nsources:\n  - a@1.0\n  - b@2.0\n")

	require.NoError(t, runSourceRemove("a@1.0"))

	doc, err := loadManifestDoc()
	require.NoError(t, err)
	require.Len(t, doc.Sources, 1)
	require.Equal(t, "b@2.0", doc.Sources[0].Spec)
}

func TestRunSourceRemoveErrorsWhenMissing(t *testing.T) {
	dir := setupProjectDir(t)
	writeManifest(t, dir, "name: demo\nversion: \"0.1.0\"\nsources: []\n")

	err := runSourceRemove("nope@1.0")
	require.Error(t, err)
	var ue *usageError
	require.ErrorAs(t, err, &ue)
}

func TestLoadManifestDocErrorsWhenMissing(t *testing.T) {
	setupProjectDir(t)

	_, err := loadManifestDoc()
	require.Error(t, err)
	var ue *usageError
	require.ErrorAs(t, err, &ue)
}
