package rules

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/dbalint/pkg/lint"
)

// ThreePartNaming requires table references to name database, schema and table.
var ThreePartNaming = lint.RuleDef{
	ID:          "DB03",
	Name:        "naming.three_part",
	Code:        "three-part-naming",
	Group:       "naming",
	Description: "Table references after FROM, JOIN, INTO and UPDATE must use {DATABASE}.{SCHEMA}.{TABLE}.",
	Severity:    lint.SeverityError,
	ConfigKey:   lint.KeyRequireThreePartNaming,
	Check:       lint.EachLine(matchThreePartNaming),
	Rationale: `Partially qualified names resolve against the session's current database and
default schema, so the same script can read different tables on different servers.`,
	BadExample:  "SELECT * FROM dbo.Orders o JOIN Customers c ON c.id = o.customer_id;",
	GoodExample: "SELECT * FROM [Sales].[dbo].[Orders] o JOIN Sales.dbo.Customers c ON c.id = o.customer_id;",
	Fix:         "Prefix the table with its database and schema. Temp tables (#t) and table variables (@t) are exempt.",
}

var tableKeywordPattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN|INTO|UPDATE)\s+`)

func matchThreePartNaming(line lint.Line, _ *lint.Config) []lint.Match {
	var matches []lint.Match
	consumed := 0
	for _, loc := range tableKeywordPattern.FindAllStringIndex(line.Code, -1) {
		if loc[0] < consumed {
			continue
		}
		ref, ok := parseTableRef(line.Code, loc[1])
		if !ok {
			continue
		}
		consumed = ref.end
		if ref.transient() || len(ref.parts) >= 3 {
			continue
		}
		matches = append(matches, lint.Match{
			Start:   ref.start,
			End:     ref.end,
			Message: fmt.Sprintf("Table reference '%s' should use three-part naming: {DATABASE}.{SCHEMA}.{TABLE}", ref.name()),
		})
	}
	return matches
}

// tableRef is a dotted identifier, e.g. [db].dbo.t or db..t.
type tableRef struct {
	start, end int
	parts      []string
}

// transient reports temp tables (#t, ##t) and table variables (@t).
func (r tableRef) transient() bool {
	first := strings.TrimPrefix(r.parts[0], "[")
	return strings.HasPrefix(first, "#") || strings.HasPrefix(first, "@")
}

func (r tableRef) name() string {
	return unquoteIdent(r.parts[len(r.parts)-1])
}

// parseTableRef reads the reference starting at pos. Subqueries and
// references directly followed by a parenthesis are not table references.
func parseTableRef(code string, pos int) (tableRef, bool) {
	if pos >= len(code) || code[pos] == '(' {
		return tableRef{}, false
	}

	ref := tableRef{start: pos}
	i := pos
	for {
		n := identPartLen(code[i:])
		ref.parts = append(ref.parts, code[i:i+n])
		i += n
		if i < len(code) && code[i] == '.' {
			i++
			continue
		}
		break
	}
	ref.end = i

	if ref.parts[0] == "" || ref.parts[len(ref.parts)-1] == "" {
		return tableRef{}, false
	}
	if i < len(code) && code[i] == '(' {
		return tableRef{}, false
	}
	return ref, true
}

// identPartLen returns the byte length of the identifier part at the start of
// s: a bracketed or double-quoted name, or a run of identifier characters.
func identPartLen(s string) int {
	if s == "" {
		return 0
	}
	switch s[0] {
	case '[':
		if end := strings.IndexByte(s, ']'); end >= 0 {
			return end + 1
		}
		return len(s)
	case '"':
		if end := strings.IndexByte(s[1:], '"'); end >= 0 {
			return end + 2
		}
		return len(s)
	}

	n := 0
	for n < len(s) {
		r, size := utf8.DecodeRuneInString(s[n:])
		if !isIdentRune(r) {
			break
		}
		n += size
	}
	return n
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '#' || r == '@' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func unquoteIdent(s string) string {
	if len(s) >= 2 && (s[0] == '[' && s[len(s)-1] == ']' || s[0] == '"' && s[len(s)-1] == '"') {
		return s[1 : len(s)-1]
	}
	return s
}
