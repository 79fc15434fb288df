// Package scanner classifies the characters of a JSON-with-comments
// document so that editing code never mistakes comment or string
// content for document structure.
package scanner

// Kind identifies what a span of text is.
type Kind int

const (
	// Structural text: punctuation, literals, and whitespace outside
	// of any comment or string.
	Structural Kind = iota
	// LineComment covers "//" through the end of the line, excluding
	// the terminating newline.
	LineComment
	// BlockComment covers "/*" through "*/" inclusive, or through the
	// end of the buffer when unterminated.
	BlockComment
	// String covers a single- or double-quoted literal including both
	// quote characters.
	String
)

// Span is a half-open range [Start, End) of uniformly classified text.
type Span struct {
	Start int
	End   int
	Kind  Kind
}

// Pos is a classified character position.
type Pos struct {
	Index int
	Kind  Kind
}

// Scan splits text into classified spans. Spans are contiguous,
// non-overlapping, and cover the whole input. Unterminated comments
// and strings run to the end of the buffer.
func Scan(text string) []Span {
	var spans []Span
	n := len(text)

	emit := func(start, end int, kind Kind) {
		if end > start {
			spans = append(spans, Span{Start: start, End: end, Kind: kind})
		}
	}

	start := 0
	i := 0
	for i < n {
		c := text[i]
		switch {
		case c == '"' || c == '\'':
			emit(start, i, Structural)
			start = i
			i = scanString(text, i)
			emit(start, i, String)
			start = i
		case c == '/' && i+1 < n && text[i+1] == '/':
			emit(start, i, Structural)
			start = i
			i = scanLineComment(text, i)
			emit(start, i, LineComment)
			start = i
		case c == '/' && i+1 < n && text[i+1] == '*':
			emit(start, i, Structural)
			start = i
			i = scanBlockComment(text, i)
			emit(start, i, BlockComment)
			start = i
		default:
			i++
		}
	}
	emit(start, n, Structural)
	return spans
}

// scanString returns the index just past the string that opens at i.
// Backslash escapes are honored; an unterminated string consumes the
// rest of the buffer.
func scanString(text string, i int) int {
	quote := text[i]
	i++
	for i < len(text) {
		switch text[i] {
		case '\\':
			i += 2
		case quote:
			return i + 1
		default:
			i++
		}
	}
	return len(text)
}

// scanLineComment returns the index of the newline that ends the
// comment opening at i, or the end of the buffer.
func scanLineComment(text string, i int) int {
	for i < len(text) && text[i] != '\n' {
		i++
	}
	return i
}

// scanBlockComment returns the index just past the "*/" that closes
// the comment opening at i, or the end of the buffer when unterminated.
func scanBlockComment(text string, i int) int {
	i += 2
	for i+1 < len(text) {
		if text[i] == '*' && text[i+1] == '/' {
			return i + 2
		}
		i++
	}
	return len(text)
}

// LastMeaningful returns the highest position holding a meaningful
// character: any character of a string literal, or a structural
// non-whitespace character. Comment content is never meaningful.
func LastMeaningful(text string) (Pos, bool) {
	ps := LastMeaningfulN(text, 1)
	if len(ps) == 0 {
		return Pos{}, false
	}
	return ps[0], true
}

// LastTwoMeaningful returns up to the last two meaningful positions,
// most recent first. Needed to detect a trailing comma that precedes a
// closing brace or bracket.
func LastTwoMeaningful(text string) []Pos {
	return LastMeaningfulN(text, 2)
}

// LastMeaningfulN collects up to n trailing meaningful positions, most
// recent first.
func LastMeaningfulN(text string, n int) []Pos {
	spans := Scan(text)
	var out []Pos
	for s := len(spans) - 1; s >= 0 && len(out) < n; s-- {
		span := spans[s]
		switch span.Kind {
		case String:
			for i := span.End - 1; i >= span.Start && len(out) < n; i-- {
				out = append(out, Pos{Index: i, Kind: String})
			}
		case Structural:
			for i := span.End - 1; i >= span.Start && len(out) < n; i-- {
				if !isSpace(text[i]) {
					out = append(out, Pos{Index: i, Kind: Structural})
				}
			}
		}
	}
	return out
}

// FirstStructural returns the position of the first structural
// occurrence of the byte c, or -1 when there is none.
func FirstStructural(text string, c byte) int {
	for _, span := range Scan(text) {
		if span.Kind != Structural {
			continue
		}
		for i := span.Start; i < span.End; i++ {
			if text[i] == c {
				return i
			}
		}
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
