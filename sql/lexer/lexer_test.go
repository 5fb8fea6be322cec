package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLexerUppercasesKeywordsAndIdentifiers(t *testing.T) {
	require := require.New(t)

	l := New()
	l.SetInput("select Id from Customers")

	tok, err := l.Next()
	require.NoError(err)
	require.Equal(Keyword, tok.Kind)
	require.Equal("SELECT", tok.Value)

	tok, err = l.Next()
	require.NoError(err)
	require.Equal(Identifier, tok.Kind)
	require.Equal("ID", tok.Value)
}

func TestLexerPreservesQuotedIdentifierAndStringCase(t *testing.T) {
	require := require.New(t)

	l := New()
	l.SetInput(`"MixedCase" 'Hello World'`)

	tok, err := l.Next()
	require.NoError(err)
	require.Equal(QuotedIdentifier, tok.Kind)
	require.Equal("MixedCase", tok.Value)

	tok, err = l.Next()
	require.NoError(err)
	require.Equal(StringLiteral, tok.Kind)
	require.Equal("Hello World", tok.Value)
}

func TestLexerDateTimeTimestampLiterals(t *testing.T) {
	require := require.New(t)

	l := New()
	l.SetInput(`DATE '2020-01-01' TIME '10:30:00' TIMESTAMP '2020-01-01T10:30:00'`)

	tok, err := l.Next()
	require.NoError(err)
	require.Equal(DateLiteral, tok.Kind)
	require.Equal("2020-01-01", tok.Value)

	tok, err = l.Next()
	require.NoError(err)
	require.Equal(TimeLiteral, tok.Kind)
	require.Equal("10:30:00", tok.Value)

	tok, err = l.Next()
	require.NoError(err)
	require.Equal(TimestampLiteral, tok.Kind)
	require.Equal("2020-01-01T10:30:00", tok.Value)
}

func TestLexerEmitsEOIAtEnd(t *testing.T) {
	require := require.New(t)

	l := New()
	l.SetInput("  \n ")
	tok, err := l.Next()
	require.NoError(err)
	require.Equal(EOI, tok.Kind)
}

func TestLexerUnmatchedCharacterRaisesLexicalAnalysisError(t *testing.T) {
	require := require.New(t)

	l := New()
	l.SetInput("$")
	_, err := l.Next()
	require.Error(err)
	require.Contains(err.Error(), "could not match any regex")
}

func TestLexerPunctuationAndCompoundOperators(t *testing.T) {
	require := require.New(t)

	l := New()
	l.SetInput("<> <= >= ||")

	var kinds []string
	for {
		tok, err := l.Next()
		require.NoError(err)
		if tok.Kind == EOI {
			break
		}
		kinds = append(kinds, tok.Value)
	}
	require.Equal([]string{"<>", "<=", ">=", "||"}, kinds)
}
