package lexer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/csvsqldb/csvsqldb/csverrors"
)

// definition pairs a regex with the Kind it produces. Definitions are
// tried in order, exactly like the original engine's ordered regex list;
// the first one that matches at the current position wins.
type definition struct {
	kind Kind
	re   *regexp.Regexp
}

// defs is anchored at the start of the remaining input (regexp.FindIndex
// with ^-anchored patterns), mirroring "tested against the current
// processing position" from the original.
var defs = []definition{
	{Punctuation, regexp.MustCompile(`^(\|\||<>|<=|>=|[(),;.*+\-/%<>=])`)},
	{TimestampLiteral, regexp.MustCompile(`^TIMESTAMP\s*'(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})'`)},
	{DateLiteral, regexp.MustCompile(`^DATE\s*'(\d{4}-\d{2}-\d{2})'`)},
	{TimeLiteral, regexp.MustCompile(`^TIME\s*'(\d{2}:\d{2}:\d{2})'`)},
	{RealLiteral, regexp.MustCompile(`^[0-9]+\.[0-9]+([eE][+-]?[0-9]+)?`)},
	{IntegerLiteral, regexp.MustCompile(`^[0-9]+`)},
	{StringLiteral, regexp.MustCompile(`^'([^'\\]|\\.)*'`)},
	{QuotedIdentifier, regexp.MustCompile(`^"([^"\\]|\\.)*"`)},
	{Identifier, regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)},
}

var whitespace = regexp.MustCompile(`^[ \t\f\r\n]+`)

// Lexer is a regex-driven token source over SQL text.
type Lexer struct {
	input  string
	pos    int
	line   int
	column int
}

// New returns a Lexer with no input set; call SetInput before Next.
func New() *Lexer {
	return &Lexer{line: 1, column: 1}
}

// SetInput resets the scanner to the start of text.
func (l *Lexer) SetInput(text string) {
	l.input = text
	l.pos = 0
	l.line = 1
	l.column = 1
}

func (l *Lexer) advance(n int) {
	for _, r := range l.input[l.pos : l.pos+n] {
		if r == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
	}
	l.pos += n
}

func (l *Lexer) skipWhitespace() {
	for {
		rest := l.input[l.pos:]
		if loc := whitespace.FindStringIndex(rest); loc != nil {
			l.advance(loc[1])
			continue
		}
		break
	}
}

// Next returns the next token, skipping whitespace and newlines. End of
// input yields an EOI token. An unmatched character raises a
// LexicalAnalysisException.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Kind: EOI, Line: l.line, Column: l.column}, nil
	}

	startLine, startCol := l.line, l.column
	rest := l.input[l.pos:]

	for _, d := range defs {
		loc := d.re.FindStringIndex(rest)
		if loc == nil || loc[0] != 0 {
			continue
		}
		raw := rest[loc[0]:loc[1]]
		l.advance(loc[1])
		return l.makeToken(d.kind, raw, startLine, startCol), nil
	}

	return Token{}, csverrors.LexicalAnalysis.New(
		positionMessage("could not match any regex", startLine, startCol))
}

func (l *Lexer) makeToken(kind Kind, raw string, line, col int) Token {
	switch kind {
	case Identifier:
		upper := strings.ToUpper(raw)
		if Keywords[upper] {
			return Token{Kind: Keyword, Value: upper, Line: line, Column: col}
		}
		return Token{Kind: Identifier, Value: upper, Line: line, Column: col}
	case QuotedIdentifier:
		return Token{Kind: QuotedIdentifier, Value: unquote(raw, '"'), Line: line, Column: col}
	case StringLiteral:
		return Token{Kind: StringLiteral, Value: unquote(raw, '\''), Line: line, Column: col}
	case DateLiteral, TimeLiteral, TimestampLiteral:
		return Token{Kind: kind, Value: extractQuoted(raw), Line: line, Column: col}
	default:
		return Token{Kind: kind, Value: raw, Line: line, Column: col}
	}
}

// unquote strips the surrounding quote character, preserving the inner
// case exactly (used for both quoted identifiers and string literals).
func unquote(raw string, quote byte) string {
	if len(raw) >= 2 && raw[0] == quote && raw[len(raw)-1] == quote {
		return raw[1 : len(raw)-1]
	}
	return raw
}

func extractQuoted(raw string) string {
	i := strings.IndexByte(raw, '\'')
	j := strings.LastIndexByte(raw, '\'')
	if i >= 0 && j > i {
		return raw[i+1 : j]
	}
	return raw
}

func positionMessage(msg string, line, col int) string {
	return msg + " at " + strconv.Itoa(line) + ":" + strconv.Itoa(col)
}
