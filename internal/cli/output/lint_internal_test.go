package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineExcerpt(t *testing.T) {
	long := "SELECT " + strings.Repeat("col, ", 30) + "x FROM t"
	tests := []struct {
		name  string
		lines []string
		n     int
		want  string
	}{
		{name: "trims", lines: []string{"   FROM Sales.dbo.T  "}, n: 0, want: "FROM Sales.dbo.T"},
		{name: "tabs expanded", lines: []string{"a\tb"}, n: 0, want: "a    b"},
		{name: "out of range", lines: []string{"x"}, n: 3, want: ""},
		{name: "negative", lines: []string{"x"}, n: -1, want: ""},
		{name: "wide runes", lines: []string{"表名"}, n: 0, want: "表名"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lineExcerpt(tt.lines, tt.n))
		})
	}

	got := lineExcerpt([]string{long}, 0)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, len([]rune(got)), excerptWidth)
}
