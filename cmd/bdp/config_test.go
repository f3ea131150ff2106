package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bdp-project/bdp/internal/config"
)

func TestRunConfigSetThenGetRoundTrips(t *testing.T) {
	setupProjectDir(t)

	require.NoError(t, runConfigSet("actor", "alice"))
	require.NoError(t, runConfigGet("actor"))

	values, err := config.ReadRaw(projectDir)
	require.NoError(t, err)
	require.Equal(t, "alice", values["actor"])
}

func TestRunConfigGetErrorsOnUnsetKey(t *testing.T) {
	setupProjectDir(t)

	err := runConfigGet("actor")
	require.Error(t, err)
	var ue *usageError
	require.ErrorAs(t, err, &ue)
}

func TestRunConfigSetRejectsUnknownKey(t *testing.T) {
	setupProjectDir(t)

	err := runConfigSet("not-a-real-key", "value")
	require.Error(t, err)
}

func TestRunConfigListReturnsAllSetKeys(t *testing.T) {
	setupProjectDir(t)

	require.NoError(t, runConfigSet("actor", "bob"))
	require.NoError(t, runConfigSet("server-url", "http://example.test"))

	values, err := config.ReadRaw(projectDir)
	require.NoError(t, err)
	require.Len(t, values, 2)
	require.NoError(t, runConfigList())
}
