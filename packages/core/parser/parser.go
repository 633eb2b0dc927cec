package parser

import (
	"os"
	"strings"
)

type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	prevEnd   int
	file      string
	source    string
}

func NewParser(input string) *Parser {
	p := &Parser{
		lexer:  NewLexer(input),
		source: input,
	}
	p.nextToken()
	p.nextToken()
	return p
}

func ParseFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(content), path)
}

func Parse(input, filename string) (*File, error) {
	p := NewParser(input)
	p.file = filename
	return p.parseFile()
}

func (p *Parser) nextToken() {
	p.prevEnd = p.curToken.End
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
	for p.peekToken.Type == TokenComment {
		p.peekToken = p.lexer.NextToken()
	}
}

func (p *Parser) skipNewlines() {
	for p.curToken.Type == TokenNewline {
		p.nextToken()
	}
}

func (p *Parser) errorf(msg string) *ParseError {
	return &ParseError{
		File:    p.file,
		Line:    p.curToken.Line,
		Column:  p.curToken.Column,
		Message: msg,
	}
}

func (p *Parser) expect(t TokenType, what string) error {
	if p.curToken.Type != t {
		return p.errorf("expected " + what + ", got " + tokenDesc(p.curToken))
	}
	return nil
}

func tokenDesc(t Token) string {
	switch t.Type {
	case TokenEOF:
		return "end of file"
	case TokenNewline:
		return "end of line"
	default:
		return "'" + t.Value + "'"
	}
}

func (p *Parser) parseFile() (*File, error) {
	file := &File{Path: p.file, Source: p.source}

	var pendingTags []string
	var pendingSkip string

	for p.curToken.Type != TokenEOF {
		switch p.curToken.Type {
		case TokenNewline, TokenComment:
			p.nextToken()
		case TokenAnnotation:
			name := strings.ToLower(p.curToken.Value)
			value := ""
			if p.curToken.Literal != nil {
				value = p.curToken.Literal.(string)
			}
			switch name {
			case "tags":
				for _, t := range strings.Split(value, ",") {
					if t = strings.TrimSpace(t); t != "" {
						pendingTags = append(pendingTags, t)
					}
				}
			case "skip":
				pendingSkip = value
				if pendingSkip == "" {
					pendingSkip = "skipped"
				}
			}
			p.nextToken()
		case TokenDef:
			fn, err := p.parseFuncDef()
			if err != nil {
				return nil, err
			}
			file.Funcs = append(file.Funcs, fn)
		case TokenTest:
			tb, err := p.parseTestBlock()
			if err != nil {
				return nil, err
			}
			tb.Tags = pendingTags
			tb.Skip = pendingSkip
			pendingTags = nil
			pendingSkip = ""
			file.Tests = append(file.Tests, tb)
		default:
			return nil, p.errorf("expected 'test' or 'def', got " + tokenDesc(p.curToken))
		}
	}

	return file, nil
}

func (p *Parser) parseFuncDef() (*FuncDef, error) {
	start := p.curToken
	p.nextToken()
	if err := p.expect(TokenIdentifier, "function name"); err != nil {
		return nil, err
	}
	fn := &FuncDef{Name: p.curToken.Value}
	p.nextToken()
	if err := p.expect(TokenLeftParen, "'('"); err != nil {
		return nil, err
	}
	p.nextToken()
	for p.curToken.Type != TokenRightParen {
		if err := p.expect(TokenIdentifier, "parameter name"); err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, p.curToken.Value)
		p.nextToken()
		if p.curToken.Type == TokenComma {
			p.nextToken()
		}
	}
	p.nextToken()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	fn.Body = body
	fn.Pos = Span{Start: start.Start, End: p.prevEnd, Line: start.Line, Column: start.Column}
	return fn, nil
}

func (p *Parser) parseTestBlock() (*TestBlock, error) {
	start := p.curToken
	p.nextToken()
	if err := p.expect(TokenString, "test name"); err != nil {
		return nil, err
	}
	tb := &TestBlock{Name: p.curToken.Value}
	p.nextToken()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	tb.Body = body
	tb.Pos = Span{Start: start.Start, End: p.prevEnd, Line: start.Line, Column: start.Column}
	return tb, nil
}

func (p *Parser) parseBlock() ([]Stmt, error) {
	if err := p.expect(TokenLeftBrace, "'{'"); err != nil {
		return nil, err
	}
	p.nextToken()
	p.skipNewlines()

	var stmts []Stmt
	for p.curToken.Type != TokenRightBrace {
		if p.curToken.Type == TokenEOF {
			return nil, p.errorf("unexpected end of file, expected '}'")
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if p.curToken.Type != TokenRightBrace {
			if err := p.expect(TokenNewline, "end of line"); err != nil {
				return nil, err
			}
		}
		p.skipNewlines()
	}
	p.nextToken()
	return stmts, nil
}

func (p *Parser) parseStmt() (Stmt, error) {
	start := p.curToken
	switch p.curToken.Type {
	case TokenLet:
		p.nextToken()
		if err := p.expect(TokenIdentifier, "variable name"); err != nil {
			return nil, err
		}
		name := p.curToken.Value
		p.nextToken()
		if err := p.expect(TokenEquals, "'='"); err != nil {
			return nil, err
		}
		p.nextToken()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &LetStmt{Name: name, Value: value, Pos: p.spanFrom(start)}, nil
	case TokenAssert:
		p.nextToken()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		var msg Expr
		if p.curToken.Type == TokenComma {
			p.nextToken()
			msg, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		return &AssertStmt{Cond: cond, Msg: msg, Pos: p.spanFrom(start)}, nil
	case TokenReturn:
		p.nextToken()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ReturnStmt{Value: value, Pos: p.spanFrom(start)}, nil
	case TokenIdentifier:
		if p.peekToken.Type == TokenEquals {
			name := p.curToken.Value
			p.nextToken()
			p.nextToken()
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return &AssignStmt{Name: name, Value: value, Pos: p.spanFrom(start)}, nil
		}
		fallthrough
	default:
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ExprStmt{X: x, Pos: p.spanFrom(start)}, nil
	}
}

func (p *Parser) spanFrom(start Token) Span {
	return Span{Start: start.Start, End: p.prevEnd, Line: start.Line, Column: start.Column}
}

// Expression grammar, loosest binding first:
// or > and > not > comparison chain > additive > multiplicative > unary > postfix.

func (p *Parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (Expr, error) {
	start := p.curToken
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	if p.curToken.Type != TokenOr {
		return left, nil
	}
	operands := []Expr{left}
	for p.curToken.Type == TokenOr {
		p.nextToken()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		operands = append(operands, right)
	}
	return &BoolExpr{Op: "or", Operands: operands, Pos: p.spanFrom(start)}, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	start := p.curToken
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	if p.curToken.Type != TokenAnd {
		return left, nil
	}
	operands := []Expr{left}
	for p.curToken.Type == TokenAnd {
		p.nextToken()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		operands = append(operands, right)
	}
	return &BoolExpr{Op: "and", Operands: operands, Pos: p.spanFrom(start)}, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.curToken.Type == TokenNot {
		start := p.curToken
		p.nextToken()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "not", X: x, Pos: p.spanFrom(start)}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Expr, error) {
	start := p.curToken
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if !isComparisonOp(p.curToken) {
		return left, nil
	}
	operands := []Expr{left}
	var ops []string
	for isComparisonOp(p.curToken) {
		ops = append(ops, p.curToken.Value)
		p.nextToken()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		operands = append(operands, right)
	}
	return &CompareExpr{Operands: operands, Ops: ops, Pos: p.spanFrom(start)}, nil
}

func isComparisonOp(t Token) bool {
	if t.Type != TokenOperator {
		return false
	}
	switch t.Value {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

func (p *Parser) parseAdditive() (Expr, error) {
	start := p.curToken
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.curToken.Type == TokenPlus || p.curToken.Type == TokenMinus {
		op := p.curToken.Value
		p.nextToken()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, X: left, Y: right, Pos: p.spanFrom(start)}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Expr, error) {
	start := p.curToken
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.curToken.Type == TokenAsterisk || p.curToken.Type == TokenSlash || p.curToken.Type == TokenPercent {
		op := p.curToken.Value
		p.nextToken()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, X: left, Y: right, Pos: p.spanFrom(start)}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.curToken.Type == TokenMinus {
		start := p.curToken
		p.nextToken()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "-", X: x, Pos: p.spanFrom(start)}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (Expr, error) {
	start := p.curToken
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.curToken.Type {
		case TokenLeftBracket:
			p.nextToken()
			p.skipNewlines()
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(TokenRightBracket, "']'"); err != nil {
				return nil, err
			}
			p.nextToken()
			x = &IndexExpr{X: x, Index: index, Pos: p.spanFrom(start)}
		case TokenDot:
			p.nextToken()
			if err := p.expect(TokenIdentifier, "field name"); err != nil {
				return nil, err
			}
			x = &FieldExpr{X: x, Name: p.curToken.Value, Pos: Span{Start: start.Start, End: p.curToken.End, Line: start.Line, Column: start.Column}}
			p.nextToken()
		default:
			return x, nil
		}
	}
}

func (p *Parser) parsePrimary() (Expr, error) {
	start := p.curToken
	switch p.curToken.Type {
	case TokenNumber, TokenString, TokenBoolean:
		lit := &BasicLit{Value: p.curToken.Literal, Pos: Span{Start: start.Start, End: start.End, Line: start.Line, Column: start.Column}}
		p.nextToken()
		return lit, nil
	case TokenNull:
		lit := &BasicLit{Value: nil, Pos: Span{Start: start.Start, End: start.End, Line: start.Line, Column: start.Column}}
		p.nextToken()
		return lit, nil
	case TokenIdentifier:
		name := p.curToken.Value
		if p.peekToken.Type == TokenLeftParen {
			p.nextToken()
			p.nextToken()
			p.skipNewlines()
			var args []Expr
			for p.curToken.Type != TokenRightParen {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.curToken.Type == TokenComma {
					p.nextToken()
					p.skipNewlines()
				} else if p.curToken.Type != TokenRightParen {
					return nil, p.errorf("expected ',' or ')', got " + tokenDesc(p.curToken))
				}
			}
			p.nextToken()
			return &CallExpr{Fn: name, Args: args, Pos: p.spanFrom(start)}, nil
		}
		p.nextToken()
		return &Ident{Name: name, Pos: Span{Start: start.Start, End: start.End, Line: start.Line, Column: start.Column}}, nil
	case TokenLeftParen:
		p.nextToken()
		p.skipNewlines()
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRightParen, "')'"); err != nil {
			return nil, err
		}
		p.nextToken()
		return x, nil
	case TokenLeftBracket:
		p.nextToken()
		p.skipNewlines()
		list := &ListLit{}
		for p.curToken.Type != TokenRightBracket {
			elem, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			list.Elems = append(list.Elems, elem)
			if p.curToken.Type == TokenComma {
				p.nextToken()
				p.skipNewlines()
			} else if p.curToken.Type != TokenRightBracket {
				return nil, p.errorf("expected ',' or ']', got " + tokenDesc(p.curToken))
			}
		}
		p.nextToken()
		list.Pos = p.spanFrom(start)
		return list, nil
	case TokenLeftBrace:
		p.nextToken()
		p.skipNewlines()
		m := &MapLit{}
		for p.curToken.Type != TokenRightBrace {
			key, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(TokenColon, "':'"); err != nil {
				return nil, err
			}
			p.nextToken()
			p.skipNewlines()
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			m.Keys = append(m.Keys, key)
			m.Values = append(m.Values, value)
			if p.curToken.Type == TokenComma {
				p.nextToken()
				p.skipNewlines()
			} else if p.curToken.Type != TokenRightBrace {
				return nil, p.errorf("expected ',' or '}', got " + tokenDesc(p.curToken))
			}
		}
		p.nextToken()
		m.Pos = p.spanFrom(start)
		return m, nil
	default:
		return nil, p.errorf("unexpected token " + tokenDesc(p.curToken))
	}
}
