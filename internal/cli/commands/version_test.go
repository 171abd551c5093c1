package commands

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dbalint/internal/version"
)

func TestNewVersionCommand(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name      string
		version   string
		commit    string
		wantOut   []string
		unwantOut []string
	}{
		{
			name:      "default version",
			version:   "0.1.0",
			wantOut:   []string{"dbalint v0.1.0"},
			unwantOut: []string{"commit:"},
		},
		{
			name:    "release build",
			version: "1.2.3",
			commit:  "abc1234",
			wantOut: []string{"dbalint v1.2.3", "commit: abc1234"},
		},
		{
			name:    "dev version",
			version: "dev",
			wantOut: []string{"dbalint vdev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldVersion, oldCommit := version.Version, version.GitCommit
			t.Cleanup(func() { version.Version, version.GitCommit = oldVersion, oldCommit })
			version.Version, version.GitCommit = tt.version, tt.commit

			out, err := execute(t, NewVersionCommand())
			require.NoError(t, err)

			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
			for _, unwant := range tt.unwantOut {
				assert.NotContains(t, out, unwant)
			}
		})
	}
}

func TestVersionCommandMetadata(t *testing.T) {
	cmd := NewVersionCommand()

	assert.Equal(t, "version", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Long, "Long should not be empty")
}
