package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dbalint/internal/cli/config"
	"github.com/leapstack-labs/dbalint/internal/cli/testutil"
)

// inWorkspace switches into a fresh directory holding files and clears any
// loaded configuration.
func inWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := testutil.SetupTestProject(t, files)
	t.Chdir(dir)
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	return dir
}

// execute runs cmd with args and returns stdout and stderr combined. Errors
// are silenced as the root command does, so failing runs leave only the
// command's own output in the buffer.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
