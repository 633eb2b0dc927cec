package parser

import (
	"encoding/gob"
	"strconv"
)

// Span marks the byte range of a node in the original source. End is
// exclusive. Explanations slice the raw source with it, so spans must
// survive instrumentation and caching unchanged.
type Span struct {
	Start  int
	End    int
	Line   int
	Column int
}

func (s Span) Text(src string) string {
	if s.Start < 0 || s.End > len(src) || s.Start > s.End {
		return ""
	}
	return src[s.Start:s.End]
}

type Node interface {
	Span() Span
}

type Expr interface {
	Node
	exprNode()
}

type Stmt interface {
	Node
	stmtNode()
}

// File is one parsed .spec file. Source is retained so spans can be
// rendered back into operand text.
type File struct {
	Path   string
	Source string
	Funcs  []*FuncDef
	Tests  []*TestBlock
}

type FuncDef struct {
	Name   string
	Params []string
	Body   []Stmt
	Pos    Span
}

type TestBlock struct {
	Name string
	Tags []string
	Skip string
	Body []Stmt
	Pos  Span
}

// Expressions.

type BasicLit struct {
	Value any // int64, float64, complex128, string, bool or nil
	Pos   Span
}

type ListLit struct {
	Elems []Expr
	Pos   Span
}

type MapLit struct {
	Keys   []Expr
	Values []Expr
	Pos    Span
}

type Ident struct {
	Name string
	Pos  Span
}

type CallExpr struct {
	Fn   string
	Args []Expr
	Pos  Span
}

type IndexExpr struct {
	X     Expr
	Index Expr
	Pos   Span
}

type FieldExpr struct {
	X    Expr
	Name string
	Pos  Span
}

type UnaryExpr struct {
	Op  string // "-" or "not"
	X   Expr
	Pos Span
}

type BinaryExpr struct {
	Op  string // arithmetic: + - * / %
	X   Expr
	Y   Expr
	Pos Span
}

// CompareExpr holds a full comparison chain: Operands has one more
// entry than Ops, e.g. a < b < c is Operands{a,b,c} Ops{"<","<"}.
type CompareExpr struct {
	Operands []Expr
	Ops      []string
	Pos      Span
}

// BoolExpr is a short-circuiting "and"/"or" over two or more operands.
type BoolExpr struct {
	Op       string
	Operands []Expr
	Pos      Span
}

func (e *BasicLit) Span() Span    { return e.Pos }
func (e *ListLit) Span() Span     { return e.Pos }
func (e *MapLit) Span() Span      { return e.Pos }
func (e *Ident) Span() Span       { return e.Pos }
func (e *CallExpr) Span() Span    { return e.Pos }
func (e *IndexExpr) Span() Span   { return e.Pos }
func (e *FieldExpr) Span() Span   { return e.Pos }
func (e *UnaryExpr) Span() Span   { return e.Pos }
func (e *BinaryExpr) Span() Span  { return e.Pos }
func (e *CompareExpr) Span() Span { return e.Pos }
func (e *BoolExpr) Span() Span    { return e.Pos }

func (e *BasicLit) exprNode()    {}
func (e *ListLit) exprNode()     {}
func (e *MapLit) exprNode()      {}
func (e *Ident) exprNode()       {}
func (e *CallExpr) exprNode()    {}
func (e *IndexExpr) exprNode()   {}
func (e *FieldExpr) exprNode()   {}
func (e *UnaryExpr) exprNode()   {}
func (e *BinaryExpr) exprNode()  {}
func (e *CompareExpr) exprNode() {}
func (e *BoolExpr) exprNode()    {}

// Statements.

type LetStmt struct {
	Name  string
	Value Expr
	Pos   Span
}

type AssignStmt struct {
	Name  string
	Value Expr
	Pos   Span
}

type AssertStmt struct {
	Cond Expr
	Msg  Expr // nil when no user message was written
	Pos  Span
}

type ReturnStmt struct {
	Value Expr
	Pos   Span
}

type ExprStmt struct {
	X   Expr
	Pos Span
}

func (s *LetStmt) Span() Span    { return s.Pos }
func (s *AssignStmt) Span() Span { return s.Pos }
func (s *AssertStmt) Span() Span { return s.Pos }
func (s *ReturnStmt) Span() Span { return s.Pos }
func (s *ExprStmt) Span() Span   { return s.Pos }

func (s *LetStmt) stmtNode()    {}
func (s *AssignStmt) stmtNode() {}
func (s *AssertStmt) stmtNode() {}
func (s *ReturnStmt) stmtNode() {}
func (s *ExprStmt) stmtNode()   {}

func (f *FuncDef) Span() Span   { return f.Pos }
func (t *TestBlock) Span() Span { return t.Pos }

// Instrumented programs are gob-encoded into the rewrite cache, so
// every concrete node type has to be registered.
func init() {
	gob.Register(&BasicLit{})
	gob.Register(&ListLit{})
	gob.Register(&MapLit{})
	gob.Register(&Ident{})
	gob.Register(&CallExpr{})
	gob.Register(&IndexExpr{})
	gob.Register(&FieldExpr{})
	gob.Register(&UnaryExpr{})
	gob.Register(&BinaryExpr{})
	gob.Register(&CompareExpr{})
	gob.Register(&BoolExpr{})
	gob.Register(&LetStmt{})
	gob.Register(&AssignStmt{})
	gob.Register(&AssertStmt{})
	gob.Register(&ReturnStmt{})
	gob.Register(&ExprStmt{})
	gob.Register(complex128(0))
}

type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return e.File + ":" + strconv.Itoa(e.Line) + ":" + strconv.Itoa(e.Column) + ": " + e.Message
	}
	return "line " + strconv.Itoa(e.Line) + ": " + e.Message
}
