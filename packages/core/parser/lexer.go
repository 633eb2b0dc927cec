package parser

import (
	"strings"
	"unicode"
)

type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNewline
	TokenComment
	TokenAnnotation
	TokenIdentifier
	TokenNumber
	TokenString
	TokenBoolean
	TokenNull
	TokenTest
	TokenDef
	TokenLet
	TokenAssert
	TokenReturn
	TokenAnd
	TokenOr
	TokenNot
	TokenOperator
	TokenPlus
	TokenMinus
	TokenAsterisk
	TokenSlash
	TokenPercent
	TokenEquals
	TokenLeftParen
	TokenRightParen
	TokenLeftBracket
	TokenRightBracket
	TokenLeftBrace
	TokenRightBrace
	TokenComma
	TokenColon
	TokenDot
)

type Token struct {
	Type    TokenType
	Value   string
	Literal any
	Line    int
	Column  int
	Start   int
	End     int
}

type Lexer struct {
	input   string
	pos     int
	readPos int
	ch      byte
	line    int
	column  int
}

func NewLexer(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.column++
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) NextToken() Token {
	l.skipSpaces()

	var tok Token
	tok.Line = l.line
	tok.Column = l.column
	tok.Start = l.pos

	switch l.ch {
	case 0:
		tok.Type = TokenEOF
	case '\n':
		tok.Type = TokenNewline
		tok.Value = "\n"
		l.readChar()
	case '\r':
		l.readChar()
		if l.ch == '\n' {
			tok.Type = TokenNewline
			tok.Value = "\n"
			l.readChar()
		}
	case '#':
		tok = l.readCommentOrAnnotation()
	case '=':
		if l.peekChar() == '=' {
			tok.Type = TokenOperator
			tok.Value = "=="
			l.readChar()
			l.readChar()
		} else {
			tok.Type = TokenEquals
			tok.Value = "="
			l.readChar()
		}
	case '!':
		if l.peekChar() == '=' {
			tok.Type = TokenOperator
			tok.Value = "!="
			l.readChar()
			l.readChar()
		} else {
			tok.Type = TokenOperator
			tok.Value = "!"
			l.readChar()
		}
	case '<':
		if l.peekChar() == '=' {
			tok.Type = TokenOperator
			tok.Value = "<="
			l.readChar()
			l.readChar()
		} else {
			tok.Type = TokenOperator
			tok.Value = "<"
			l.readChar()
		}
	case '>':
		if l.peekChar() == '=' {
			tok.Type = TokenOperator
			tok.Value = ">="
			l.readChar()
			l.readChar()
		} else {
			tok.Type = TokenOperator
			tok.Value = ">"
			l.readChar()
		}
	case '+':
		tok.Type = TokenPlus
		tok.Value = "+"
		l.readChar()
	case '-':
		tok.Type = TokenMinus
		tok.Value = "-"
		l.readChar()
	case '*':
		tok.Type = TokenAsterisk
		tok.Value = "*"
		l.readChar()
	case '/':
		tok.Type = TokenSlash
		tok.Value = "/"
		l.readChar()
	case '%':
		tok.Type = TokenPercent
		tok.Value = "%"
		l.readChar()
	case '(':
		tok.Type = TokenLeftParen
		tok.Value = "("
		l.readChar()
	case ')':
		tok.Type = TokenRightParen
		tok.Value = ")"
		l.readChar()
	case '[':
		tok.Type = TokenLeftBracket
		tok.Value = "["
		l.readChar()
	case ']':
		tok.Type = TokenRightBracket
		tok.Value = "]"
		l.readChar()
	case '{':
		tok.Type = TokenLeftBrace
		tok.Value = "{"
		l.readChar()
	case '}':
		tok.Type = TokenRightBrace
		tok.Value = "}"
		l.readChar()
	case ',':
		tok.Type = TokenComma
		tok.Value = ","
		l.readChar()
	case ':':
		tok.Type = TokenColon
		tok.Value = ":"
		l.readChar()
	case '.':
		tok.Type = TokenDot
		tok.Value = "."
		l.readChar()
	case '"':
		tok = l.readString('"')
	case '\'':
		tok = l.readString('\'')
	default:
		if isLetter(l.ch) {
			tok = l.readIdentifierOrKeyword()
		} else if isDigit(l.ch) {
			tok = l.readNumber()
		} else {
			tok.Type = TokenComment
			tok.Value = string(l.ch)
			l.readChar()
		}
	}

	tok.End = l.pos
	return tok
}

func (l *Lexer) skipSpaces() {
	for l.ch == ' ' || l.ch == '\t' {
		l.readChar()
	}
}

// readCommentOrAnnotation handles plain "# ..." comments and
// "# @tags smoke, fast" annotations attached to the next test block.
func (l *Lexer) readCommentOrAnnotation() Token {
	line := l.line
	col := l.column
	start := l.pos
	l.readChar()
	for l.ch == ' ' || l.ch == '\t' {
		l.readChar()
	}
	if l.ch != '@' {
		comment := l.readToEndOfLine()
		return Token{
			Type:   TokenComment,
			Value:  strings.TrimSpace(comment),
			Line:   line,
			Column: col,
			Start:  start,
		}
	}
	l.readChar()
	name := l.readIdentifier()
	for l.ch == ' ' || l.ch == '\t' {
		l.readChar()
	}
	value := strings.TrimSpace(l.readToEndOfLine())
	return Token{
		Type:    TokenAnnotation,
		Value:   name,
		Literal: value,
		Line:    line,
		Column:  col,
		Start:   start,
	}
}

func (l *Lexer) readString(quote byte) Token {
	line := l.line
	col := l.column
	start := l.pos
	l.readChar()
	var builder strings.Builder
	for l.ch != 0 && l.ch != quote {
		if l.ch == '\\' {
			switch l.peekChar() {
			case 'n':
				builder.WriteByte('\n')
				l.readChar()
				l.readChar()
				continue
			case 't':
				builder.WriteByte('\t')
				l.readChar()
				l.readChar()
				continue
			case '\\', quote:
				l.readChar()
			}
		}
		builder.WriteByte(l.ch)
		l.readChar()
	}
	if l.ch == quote {
		l.readChar()
	}
	return Token{
		Type:    TokenString,
		Value:   builder.String(),
		Literal: builder.String(),
		Line:    line,
		Column:  col,
		Start:   start,
	}
}

// readNumber scans integers, decimals and imaginary literals (Go style,
// e.g. 4i or 2.5i).
func (l *Lexer) readNumber() Token {
	line := l.line
	col := l.column
	start := l.pos
	var builder strings.Builder
	isFloat := false
	for isDigit(l.ch) {
		builder.WriteByte(l.ch)
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		builder.WriteByte(l.ch)
		l.readChar()
		for isDigit(l.ch) {
			builder.WriteByte(l.ch)
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			isFloat = true
			builder.WriteByte(l.ch)
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				builder.WriteByte(l.ch)
				l.readChar()
			}
			for isDigit(l.ch) {
				builder.WriteByte(l.ch)
				l.readChar()
			}
		}
	}
	isImag := false
	if l.ch == 'i' && !isLetter(l.peekChar()) && !isDigit(l.peekChar()) {
		isImag = true
		l.readChar()
	}
	tok := Token{
		Type:   TokenNumber,
		Value:  builder.String(),
		Line:   line,
		Column: col,
		Start:  start,
	}
	switch {
	case isImag:
		tok.Literal = literalImag(builder.String())
	case isFloat:
		tok.Literal = literalFloat(builder.String())
	default:
		tok.Literal = literalInt(builder.String())
	}
	return tok
}

func (l *Lexer) readIdentifierOrKeyword() Token {
	line := l.line
	col := l.column
	start := l.pos
	ident := l.readIdentifier()

	tok := Token{Value: ident, Line: line, Column: col, Start: start}
	switch ident {
	case "test":
		tok.Type = TokenTest
	case "def":
		tok.Type = TokenDef
	case "let":
		tok.Type = TokenLet
	case "assert":
		tok.Type = TokenAssert
	case "return":
		tok.Type = TokenReturn
	case "and":
		tok.Type = TokenAnd
	case "or":
		tok.Type = TokenOr
	case "not":
		tok.Type = TokenNot
	case "true", "false":
		tok.Type = TokenBoolean
		tok.Literal = ident == "true"
	case "nil":
		tok.Type = TokenNull
	default:
		tok.Type = TokenIdentifier
	}
	return tok
}

func (l *Lexer) readIdentifier() string {
	var builder strings.Builder
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		builder.WriteByte(l.ch)
		l.readChar()
	}
	return builder.String()
}

func (l *Lexer) readToEndOfLine() string {
	var builder strings.Builder
	for l.ch != 0 && l.ch != '\n' && l.ch != '\r' {
		builder.WriteByte(l.ch)
		l.readChar()
	}
	return builder.String()
}

func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch)) || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
