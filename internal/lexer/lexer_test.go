package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextTokenBasic(t *testing.T) {
	input := `let x = 10;`

	tests := []struct {
		typ TokenType
		raw string
	}{
		{LET, "let"},
		{IDENT, "x"},
		{ASSIGN, "="},
		{INT, "10"},
		{SEMICOLON, ";"},
		{EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		require.Equal(t, tt.typ, tok.Type, "tests[%d]", i)
		require.Equal(t, tt.raw, tok.Raw, "tests[%d]", i)
	}
}

func TestNextTokenKeywordsAndOperators(t *testing.T) {
	input := `if a >= b { print a; } else if a == b { loop { break; } }`

	expected := []TokenType{
		IF, IDENT, GE, IDENT, LBRACE, PRINT, IDENT, SEMICOLON, RBRACE,
		ELSE, IF, IDENT, EQ, IDENT, LBRACE, LOOP, LBRACE, BREAK, SEMICOLON, RBRACE, RBRACE,
		EOF,
	}

	l := New(input)
	for i, typ := range expected {
		tok := l.NextToken()
		require.Equal(t, typ, tok.Type, "step %d", i)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	l := New("let x")
	first := l.Peek()
	second := l.NextToken()
	require.Equal(t, LET, first.Type)
	require.Equal(t, LET, second.Type)
	require.Equal(t, IDENT, l.NextToken().Type)
}

func TestLeadingWhitespaceSpan(t *testing.T) {
	l := New("let   x")
	l.NextToken()        // let
	tok := l.NextToken() // x, preceded by three spaces
	require.Equal(t, 3, tok.LeadingWhitespace.End-tok.LeadingWhitespace.Start)
}

func TestUnterminatedStringRecordsError(t *testing.T) {
	l := New(`"abc`)
	tok := l.NextToken()
	require.Equal(t, ILLEGAL, tok.Type)
	require.Len(t, l.Errors, 1)
	require.Equal(t, ErrUnterminatedString, l.Errors[0].Kind)
}

func TestIllegalRuneRecordsError(t *testing.T) {
	l := New("let x = @;")
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			break
		}
	}
	require.Len(t, l.Errors, 1)
	require.Equal(t, ErrIllegalRune, l.Errors[0].Kind)
}

func TestFloatAndStringLiterals(t *testing.T) {
	l := New(`3.14 "hello\n"`)
	tok := l.NextToken()
	require.Equal(t, FLOAT, tok.Type)
	require.Equal(t, "3.14", tok.Raw)

	tok = l.NextToken()
	require.Equal(t, STRING, tok.Type)
	require.Equal(t, "hello\n", tok.Value)
}

func TestLineAndBlockCommentsAreSkipped(t *testing.T) {
	input := "let x = 1; // comment\n/* block\n comment */let y = 2;"
	expected := []TokenType{LET, IDENT, ASSIGN, INT, SEMICOLON, LET, IDENT, ASSIGN, INT, SEMICOLON, EOF}
	l := New(input)
	for i, typ := range expected {
		tok := l.NextToken()
		require.Equal(t, typ, tok.Type, "step %d", i)
	}
}
