package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", cfg.ServerURL)
	require.Equal(t, 4, cfg.PullParallelism)
}

func TestLoadReadsProjectConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".bdp"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".bdp", "config.yaml"),
		[]byte("server-url: https://registry.example.org\npull-parallelism: 8\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "https://registry.example.org", cfg.ServerURL)
	require.Equal(t, 8, cfg.PullParallelism)
}

func TestLoadEnvVarOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".bdp"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".bdp", "config.yaml"),
		[]byte("server-url: https://registry.example.org\n"), 0o644))

	t.Setenv("BDP_SERVER_URL", "https://override.example.org")

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "https://override.example.org", cfg.ServerURL)
}

func TestFindProjectRootWalksUpToBdpDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".bdp"), 0o755))
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	require.Equal(t, root, FindProjectRoot(nested))
}

func TestFindProjectRootReturnsEmptyWhenNoneFound(t *testing.T) {
	require.Equal(t, "", FindProjectRoot(t.TempDir()))
}
