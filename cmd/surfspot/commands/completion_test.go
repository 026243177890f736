package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletion(t *testing.T) {
	cmd := Completion()

	require.NotNil(t, cmd)
	assert.Equal(t, "completion [bash|zsh|fish|powershell]", cmd.Use)
	assert.Equal(t, "Generate shell completion scripts", cmd.Short)
	assert.Equal(t, []string{"bash", "zsh", "fish", "powershell"}, cmd.ValidArgs)
	assert.True(t, cmd.DisableFlagsInUseLine)
}

func TestCompletion_Shells(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			var buf bytes.Buffer
			root := Root()
			root.SetOut(&buf)
			root.SetArgs([]string{"completion", shell})

			require.NoError(t, root.Execute())
			assert.Contains(t, buf.String(), "surfspot")
		})
	}
}

func TestCompletion_InvalidShell(t *testing.T) {
	root := Root()
	root.SetArgs([]string{"completion", "invalid"})

	assert.Error(t, root.Execute())
}

func TestCompletion_NoArgs(t *testing.T) {
	root := Root()
	root.SetArgs([]string{"completion"})

	assert.Error(t, root.Execute())
}
