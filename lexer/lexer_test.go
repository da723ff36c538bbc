package lexer_test

import (
	"testing"

	"github.com/storance/dcpu16-sub000/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_BasicTokens(t *testing.T) {
	l := lexer.NewLexer("SET A, 42", "test.dasm")

	expected := []lexer.TokenType{
		lexer.TokenIdentifier, // SET
		lexer.TokenRegister,   // A
		lexer.TokenComma,
		lexer.TokenInteger, // 42
		lexer.TokenEOF,
	}
	for i, want := range expected {
		tok := l.NextToken()
		assert.Equal(t, want, tok.Type, "token %d", i)
	}
}

func TestLexer_Labels(t *testing.T) {
	l := lexer.NewLexer(":loop SET A, 1", "test.dasm")

	tok := l.NextToken()
	assert.Equal(t, lexer.TokenLabelPrefix, tok.Type)

	tok = l.NextToken()
	assert.Equal(t, lexer.TokenIdentifier, tok.Type)
	assert.Equal(t, "loop", tok.Literal)
}

func TestLexer_Comment(t *testing.T) {
	l := lexer.NewLexer("; a whole comment line\nSET A, 1", "test.dasm")
	tok := l.NextToken()
	assert.Equal(t, lexer.TokenNewline, tok.Type)
}

func TestLexer_NumberBases(t *testing.T) {
	tests := []struct {
		input string
		want  uint64
	}{
		{"42", 42},
		{"0x2A", 0x2a},
		{"0o52", 0o52},
		{"0b101010", 0b101010},
	}
	for _, tt := range tests {
		l := lexer.NewLexer(tt.input, "test.dasm")
		tok := l.NextToken()
		require.Equal(t, lexer.TokenInteger, tok.Type, "input %q", tt.input)
		assert.Equal(t, tt.want, tok.IntValue, "input %q", tt.input)
	}
}

func TestLexer_IntegerOverflowClamps(t *testing.T) {
	l := lexer.NewLexer("0xFFFFFFFFFF", "test.dasm")
	tok := l.NextToken()
	require.Equal(t, lexer.TokenInteger, tok.Type)
	assert.Equal(t, uint64(0xFFFFFFFF), tok.IntValue)
	assert.True(t, tok.Overflow)
	assert.True(t, l.Errors.HasWarnings())
}

func TestLexer_InvalidIntegerRecovers(t *testing.T) {
	l := lexer.NewLexer("0x", "test.dasm")
	tok := l.NextToken()
	assert.Equal(t, lexer.TokenInvalidInteger, tok.Type)
	assert.True(t, l.Errors.HasErrors())

	// lexing continues past the bad token
	tok = l.NextToken()
	assert.Equal(t, lexer.TokenEOF, tok.Type)
}

func TestLexer_StackShorthands(t *testing.T) {
	tests := []struct {
		input string
		want  lexer.TokenType
	}{
		{"[--SP]", lexer.TokenStackPush},
		{"[SP++]", lexer.TokenStackPop},
		{"[SP]", lexer.TokenStackPeek},
		{"[A]", lexer.TokenLBracket},
	}
	for _, tt := range tests {
		l := lexer.NewLexer(tt.input, "test.dasm")
		tok := l.NextToken()
		assert.Equal(t, tt.want, tok.Type, "input %q", tt.input)
	}
}

func TestLexer_StringEscapes(t *testing.T) {
	l := lexer.NewLexer(`"a\nb\x41"`, "test.dasm")
	tok := l.NextToken()
	require.Equal(t, lexer.TokenString, tok.Type)
	assert.Equal(t, "a\nbA", tok.Literal)
}

func TestLexer_UnterminatedStringErrors(t *testing.T) {
	l := lexer.NewLexer(`"unterminated`, "test.dasm")
	l.NextToken()
	assert.True(t, l.Errors.HasErrors())
}

func TestLexer_RegisterNamesCaseInsensitive(t *testing.T) {
	for _, name := range []string{"a", "A", "sp", "SP", "pc", "ia"} {
		l := lexer.NewLexer(name, "test.dasm")
		tok := l.NextToken()
		assert.Equal(t, lexer.TokenRegister, tok.Type, "register %q", name)
	}
}

func TestLexer_TokenizeAllEndsWithEOF(t *testing.T) {
	l := lexer.NewLexer("SET A, 1\nSET B, 2", "test.dasm")
	toks := l.TokenizeAll()
	require.NotEmpty(t, toks)
	assert.Equal(t, lexer.TokenEOF, toks[len(toks)-1].Type)
}
