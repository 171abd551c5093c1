package lint

import (
	"strings"
	"unicode/utf16"
)

// =============================================================================
// Documents
// =============================================================================

// Document is an immutable snapshot of a SQL script.
type Document struct {
	URI  string // Stable identity, used as the sink key
	Text string // Full content
}

// Lines splits the document into lines. A trailing carriage return is dropped
// from each line so CRLF files scan like LF files. Empty text yields a single
// empty line.
func (d Document) Lines() []string {
	lines := strings.Split(d.Text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Line is one document line after comment tracking.
type Line struct {
	Number int    // Zero-based line number
	Text   string // Raw line text
	Code   string // Text with commented bytes replaced by spaces
	Spans  []Span // Live code spans, in byte offsets
}

// IsBlank reports whether the line carries no live code.
func (l Line) IsBlank() bool {
	return strings.TrimSpace(l.Code) == ""
}

// =============================================================================
// Diagnostics
// =============================================================================

// Position is a zero-based line and character offset. Characters are counted
// in UTF-16 code units.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a span between two positions. End is exclusive.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Diagnostic represents a single rule violation.
type Diagnostic struct {
	Range    Range    `json:"range"`
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Source   string   `json:"source"`
	Message  string   `json:"message"`
	RuleID   string   `json:"ruleId"`
}

// Match is a rule hit on a single line, in byte offsets of that line.
type Match struct {
	Start   int
	End     int
	Message string
}

// LineRange converts byte offsets on a line into a diagnostic range.
func LineRange(line Line, start, end int) Range {
	return Range{
		Start: Position{Line: line.Number, Character: utf16Column(line.Text, start)},
		End:   Position{Line: line.Number, Character: utf16Column(line.Text, end)},
	}
}

// utf16Column returns the number of UTF-16 code units in s[:offset].
func utf16Column(s string, offset int) int {
	if offset > len(s) {
		offset = len(s)
	}
	col := 0
	for _, r := range s[:offset] {
		if utf16.RuneLen(r) == 2 {
			col += 2
			continue
		}
		col++
	}
	return col
}
