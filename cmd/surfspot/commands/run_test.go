package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/surfspot/cmd/surfspot/handlers"
)

func TestRun(t *testing.T) {
	cmd := Run(&handlers.Globals{})

	require.NotNil(t, cmd)
	assert.Equal(t, "run", cmd.Use)
	assert.Equal(t, "Run a provisioning cycle for the latest change", cmd.Short)
	assert.Contains(t, cmd.Long, "checks the monitored repository")
	assert.NotNil(t, cmd.RunE, "Run command should have RunE function")
}

func TestRun_Flags(t *testing.T) {
	cmd := Run(&handlers.Globals{})

	watch := cmd.Flags().Lookup("watch")
	require.NotNil(t, watch, "watch flag should exist")
	assert.Equal(t, "w", watch.Shorthand)
	assert.Equal(t, "false", watch.DefValue)

	metrics := cmd.Flags().Lookup("metrics-addr")
	require.NotNil(t, metrics, "metrics-addr flag should exist")
	assert.Equal(t, "", metrics.DefValue)
}

func TestRun_LongDescription(t *testing.T) {
	cmd := Run(&handlers.Globals{})

	assert.Contains(t, cmd.Long, "grace period")
	assert.Contains(t, cmd.Long, "surfspot resume")
	assert.Contains(t, cmd.Long, "--watch")
}
