package lint

import "strings"

const (
	lineCommentMarker = "--"
	blockOpen         = "/*"
	blockClose        = "*/"
)

// Span is a half-open byte range [Start, End) of live code on a line.
type Span struct {
	Start int
	End   int
}

// ScanComments is one step of the comment fold. Given a line and whether the
// previous line ended inside a block comment, it returns the live code spans
// of the line and the block state for the next line.
//
// Comment markers inside string literals are not recognized as such.
func ScanComments(line string, inBlock bool) ([]Span, bool) {
	spans, next := scanSpans(line, inBlock)
	if strings.HasPrefix(strings.TrimSpace(line), lineCommentMarker) {
		return nil, next
	}
	return spans, next
}

func scanSpans(line string, inBlock bool) ([]Span, bool) {
	var spans []Span
	pos := 0
	for pos < len(line) {
		if inBlock {
			end := strings.Index(line[pos:], blockClose)
			if end < 0 {
				return spans, true
			}
			pos += end + len(blockClose)
			inBlock = false
			continue
		}

		rest := line[pos:]
		lc := strings.Index(rest, lineCommentMarker)
		bc := strings.Index(rest, blockOpen)
		switch {
		case lc < 0 && bc < 0:
			return append(spans, Span{Start: pos, End: len(line)}), false
		case bc < 0 || (lc >= 0 && lc < bc):
			if lc > 0 {
				spans = append(spans, Span{Start: pos, End: pos + lc})
			}
			return spans, false
		default:
			if bc > 0 {
				spans = append(spans, Span{Start: pos, End: pos + bc})
			}
			pos += bc + len(blockOpen)
			inBlock = true
		}
	}
	return spans, inBlock
}

// MaskComments returns line with every byte outside spans replaced by a space.
// Byte offsets in the result match offsets in line.
func MaskComments(line string, spans []Span) string {
	if len(spans) == 1 && spans[0].Start == 0 && spans[0].End == len(line) {
		return line
	}
	masked := []byte(strings.Repeat(" ", len(line)))
	for _, s := range spans {
		copy(masked[s.Start:s.End], line[s.Start:s.End])
	}
	return string(masked)
}

// ScanDocument folds ScanComments over lines starting outside any comment.
func ScanDocument(lines []string) []Line {
	out := make([]Line, len(lines))
	inBlock := false
	for i, text := range lines {
		var spans []Span
		spans, inBlock = ScanComments(text, inBlock)
		out[i] = Line{
			Number: i,
			Text:   text,
			Code:   MaskComments(text, spans),
			Spans:  spans,
		}
	}
	return out
}
