package version

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	oldV, oldC, oldD, oldNoColor := Version, GitCommit, BuildDate, color.NoColor
	Version, GitCommit, BuildDate = v, commit, date
	color.NoColor = true
	t.Cleanup(func() {
		Version, GitCommit, BuildDate, color.NoColor = oldV, oldC, oldD, oldNoColor
	})
}

func TestWrite(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		date    string
		want    []string
		notWant []string
	}{
		{name: "plain", version: "1.2.3", want: []string{"dbalint v1.2.3"}, notWant: []string{"commit:", "built:"}},
		{name: "with build info", version: "0.1.0", commit: "abc123", date: "2026-01-02", want: []string{"dbalint v0.1.0", "commit: abc123", "built:  2026-01-02"}},
		{name: "non semver", version: "dev", want: []string{"dbalint vdev"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withVersion(t, tt.version, tt.commit, tt.date)
			var buf bytes.Buffer
			Write(&buf)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, buf.String(), w)
			}
		})
	}
}

func TestColored_NoColor(t *testing.T) {
	withVersion(t, "1.2.3", "", "")
	assert.Equal(t, "1.2.3", Colored())
}
