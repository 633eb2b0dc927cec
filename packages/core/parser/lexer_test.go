package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_Tokens(t *testing.T) {
	input := `assert x <= 10`
	l := NewLexer(input)

	want := []struct {
		typ   TokenType
		value string
	}{
		{TokenAssert, "assert"},
		{TokenIdentifier, "x"},
		{TokenOperator, "<="},
		{TokenNumber, "10"},
		{TokenEOF, ""},
	}
	for _, w := range want {
		tok := l.NextToken()
		assert.Equal(t, w.typ, tok.Type)
		assert.Equal(t, w.value, tok.Value)
	}
}

func TestLexer_Offsets(t *testing.T) {
	input := `assert foo == 1`
	l := NewLexer(input)

	l.NextToken() // assert
	tok := l.NextToken()
	require.Equal(t, TokenIdentifier, tok.Type)
	assert.Equal(t, "foo", input[tok.Start:tok.End])
}

func TestLexer_StringEscapes(t *testing.T) {
	l := NewLexer(`"a\nb\t\"c\""`)
	tok := l.NextToken()
	require.Equal(t, TokenString, tok.Type)
	assert.Equal(t, "a\nb\t\"c\"", tok.Value)
}

func TestLexer_Annotation(t *testing.T) {
	l := NewLexer("# @tags smoke, fast\n")
	tok := l.NextToken()
	require.Equal(t, TokenAnnotation, tok.Type)
	assert.Equal(t, "tags", tok.Value)
	assert.Equal(t, "smoke, fast", tok.Literal)
}

func TestLexer_Numbers(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{"7", int64(7)},
		{"2.5", 2.5},
		{"1e-3", 0.001},
		{"2.5i", complex(0, 2.5)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := NewLexer(tt.input).NextToken()
			require.Equal(t, TokenNumber, tok.Type)
			assert.Equal(t, tt.want, tok.Literal)
		})
	}
}
