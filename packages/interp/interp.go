package interp

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/introspec/packages/analyze"
	"github.com/abdul-hamid-achik/introspec/packages/core/parser"
	"github.com/abdul-hamid-achik/introspec/packages/explain"
	"github.com/abdul-hamid-achik/introspec/packages/format"
	"github.com/abdul-hamid-achik/introspec/packages/rewrite"
)

// Interp executes one instrumented program. It is single-use and
// single-threaded: at most one assertion is in flight at a time, which
// lets the capture recorder live on the interpreter itself.
type Interp struct {
	prog     *rewrite.Program
	cfg      format.Config
	builtins *Registry
	globals  *Env
	funcs    map[string]*parser.FuncDef
	rec      *recorder
}

type Option func(*Interp)

// WithFormatConfig bounds explanation output.
func WithFormatConfig(cfg format.Config) Option {
	return func(in *Interp) {
		in.cfg = cfg
	}
}

// WithRegistry replaces the builtin function registry.
func WithRegistry(r *Registry) Option {
	return func(in *Interp) {
		in.builtins = r
	}
}

func New(prog *rewrite.Program, opts ...Option) *Interp {
	in := &Interp{
		prog:    prog,
		cfg:     format.DefaultConfig,
		globals: NewEnv(nil),
		funcs:   make(map[string]*parser.FuncDef),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.builtins == nil {
		in.builtins = NewRegistry(0, 0, "")
	}
	for _, fn := range prog.File.Funcs {
		in.funcs[fn.Name] = fn
	}
	return in
}

// RunTest executes one test block. It returns nil when every assertion
// held, an *AssertionError for the first failed assertion, or the
// propagated *RuntimeError when evaluation itself blew up.
func (in *Interp) RunTest(t *parser.TestBlock) error {
	env := NewEnv(in.globals)
	_, _, err := in.evalBlock(t.Body, env)
	return err
}

// recorder collects sub-expression values during the single evaluation
// pass of one instrumented assertion.
type recorder struct {
	idx  map[parser.Span]analyze.Target
	caps []capturedValue
	// fail holds the failing pairwise comparison that decided the
	// condition. For an and-chain that is the one that short-circuited
	// it; for an or-chain whose every alternative failed it is the last
	// alternative tried. A comparison inside a boolean group that
	// ultimately evaluated true never ends up here.
	fail *pairFailure
}

type capturedValue struct {
	span   parser.Span
	target analyze.Target
	value  any
}

type pairFailure struct {
	left      any
	right     any
	op        string
	leftSpan  parser.Span
	rightSpan parser.Span
}

// wheres extracts the "where" elaborations, optionally restricted to
// captures inside a source region (the failing comparison's operands).
func (r *recorder) wheres(source string, region *parser.Span) []explain.Where {
	var out []explain.Where
	for _, c := range r.caps {
		if region != nil && (c.span.Start < region.Start || c.span.End > region.End) {
			continue
		}
		out = append(out, explain.Where{
			Value:  c.value,
			Source: strings.TrimSpace(c.span.Text(source)),
			Depth:  c.target.Depth,
		})
	}
	return out
}

func (in *Interp) evalBlock(stmts []parser.Stmt, env *Env) (any, bool, error) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *parser.LetStmt:
			v, err := in.evalExpr(s.Value, env)
			if err != nil {
				return nil, false, err
			}
			env.Define(s.Name, v)
		case *parser.AssignStmt:
			v, err := in.evalExpr(s.Value, env)
			if err != nil {
				return nil, false, err
			}
			if !env.Assign(s.Name, v) {
				return nil, false, &RuntimeError{
					Message: "assignment to undefined name " + s.Name,
					Line:    s.Pos.Line,
				}
			}
		case *parser.ReturnStmt:
			v, err := in.evalExpr(s.Value, env)
			if err != nil {
				return nil, false, err
			}
			return v, true, nil
		case *parser.ExprStmt:
			if _, err := in.evalExpr(s.X, env); err != nil {
				return nil, false, err
			}
		case *parser.AssertStmt:
			if err := in.execAssert(s, env); err != nil {
				return nil, false, err
			}
		default:
			return nil, false, &RuntimeError{
				Message: fmt.Sprintf("unsupported statement %T", stmt),
				Line:    stmt.Span().Line,
			}
		}
	}
	return nil, false, nil
}

// execAssert evaluates one assertion. The condition and its side
// effects run exactly once whether or not instrumentation is active;
// the success path does no explanation work beyond discarding the raw
// captures; the user message is only ever evaluated on failure.
func (in *Interp) execAssert(s *parser.AssertStmt, env *Env) error {
	condSource := strings.TrimSpace(s.Cond.Span().Text(in.prog.Source))

	plan, instrumented := in.prog.PlanFor(s)
	if !instrumented {
		v, err := in.evalExpr(s.Cond, env)
		if err != nil {
			return err
		}
		if truthy(v) {
			return nil
		}
		msg, err := in.evalMessage(s, env)
		if err != nil {
			return err
		}
		return &AssertionError{
			Explanation: explain.PlainMessage(condSource, msg),
			CondSource:  condSource,
			Line:        s.Pos.Line,
		}
	}

	in.rec = &recorder{idx: plan.Index()}
	v, err := in.evalExpr(s.Cond, env)
	rec := in.rec
	in.rec = nil
	if err != nil {
		// A runtime error inside the condition is not an assertion
		// failure; it propagates with no explanation assembled.
		return err
	}
	if truthy(v) {
		return nil
	}

	msg, err := in.evalMessage(s, env)
	if err != nil {
		return err
	}

	f := explain.Failure{CondSource: condSource, Message: msg}
	if rec.fail != nil {
		f.Left = rec.fail.left
		f.Op = rec.fail.op
		f.Right = rec.fail.right
		if rec.fail.op == "==" {
			f.Diff = in.cfg.Diff(rec.fail.left, rec.fail.right)
		}
		region := parser.Span{Start: rec.fail.leftSpan.Start, End: rec.fail.rightSpan.End}
		f.Wheres = rec.wheres(in.prog.Source, &region)
	} else {
		f.Bare = true
		f.Left = v
		f.Wheres = rec.wheres(in.prog.Source, nil)
	}

	return &AssertionError{
		Explanation: explain.Assemble(f, in.cfg),
		CondSource:  condSource,
		Line:        s.Pos.Line,
	}
}

func (in *Interp) evalMessage(s *parser.AssertStmt, env *Env) (string, error) {
	if s.Msg == nil {
		return "", nil
	}
	v, err := in.evalExpr(s.Msg, env)
	if err != nil {
		return "", err
	}
	if str, ok := v.(string); ok {
		return str, nil
	}
	return format.Repr(v), nil
}

// evalExpr evaluates a node and, when an instrumented assertion is in
// flight, records its value if the capture plan asked for it. Values
// are captured during this one canonical pass; nothing is ever
// re-evaluated to build an explanation.
func (in *Interp) evalExpr(e parser.Expr, env *Env) (any, error) {
	v, err := in.eval(e, env)
	if err != nil {
		return nil, err
	}
	if in.rec != nil {
		if t, ok := in.rec.idx[e.Span()]; ok {
			in.rec.caps = append(in.rec.caps, capturedValue{span: e.Span(), target: t, value: v})
		}
	}
	return v, nil
}

func (in *Interp) eval(e parser.Expr, env *Env) (any, error) {
	switch n := e.(type) {
	case *parser.BasicLit:
		return n.Value, nil

	case *parser.Ident:
		if v, ok := env.Get(n.Name); ok {
			return v, nil
		}
		return nil, &RuntimeError{Message: "undefined name " + n.Name, Line: n.Pos.Line}

	case *parser.ListLit:
		out := make([]any, 0, len(n.Elems))
		for _, elem := range n.Elems {
			v, err := in.evalExpr(elem, env)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case *parser.MapLit:
		out := make(map[string]any, len(n.Keys))
		for i := range n.Keys {
			k, err := in.evalExpr(n.Keys[i], env)
			if err != nil {
				return nil, err
			}
			key, ok := k.(string)
			if !ok {
				return nil, &RuntimeError{Message: "map key must be a string, got " + typeName(k), Line: n.Pos.Line}
			}
			v, err := in.evalExpr(n.Values[i], env)
			if err != nil {
				return nil, err
			}
			out[key] = v
		}
		return out, nil

	case *parser.CallExpr:
		return in.evalCall(n, env)

	case *parser.IndexExpr:
		x, err := in.evalExpr(n.X, env)
		if err != nil {
			return nil, err
		}
		index, err := in.evalExpr(n.Index, env)
		if err != nil {
			return nil, err
		}
		return indexValue(x, index, n.Pos.Line)

	case *parser.FieldExpr:
		x, err := in.evalExpr(n.X, env)
		if err != nil {
			return nil, err
		}
		m, ok := x.(map[string]any)
		if !ok {
			return nil, &RuntimeError{Message: typeName(x) + " has no fields", Line: n.Pos.Line}
		}
		v, present := m[n.Name]
		if !present {
			return nil, &RuntimeError{Message: "no field " + n.Name, Line: n.Pos.Line}
		}
		return v, nil

	case *parser.UnaryExpr:
		x, err := in.evalExpr(n.X, env)
		if err != nil {
			return nil, err
		}
		if n.Op == "not" {
			return !truthy(x), nil
		}
		switch v := x.(type) {
		case int64:
			return -v, nil
		case float64:
			return -v, nil
		case complex128:
			return -v, nil
		}
		return nil, &RuntimeError{Message: "cannot negate " + typeName(x), Line: n.Pos.Line}

	case *parser.BinaryExpr:
		x, err := in.evalExpr(n.X, env)
		if err != nil {
			return nil, err
		}
		y, err := in.evalExpr(n.Y, env)
		if err != nil {
			return nil, err
		}
		return arith(x, y, n.Op, n.Pos.Line)

	case *parser.CompareExpr:
		return in.evalCompare(n, env)

	case *parser.BoolExpr:
		return in.evalBool(n, env)
	}

	return nil, &RuntimeError{Message: fmt.Sprintf("unsupported expression %T", e), Line: e.Span().Line}
}

// evalCompare walks a comparison chain pairwise, left to right. The
// first false link stops the chain, so operands past it are never
// evaluated, exactly as the unrewritten expression would behave.
func (in *Interp) evalCompare(n *parser.CompareExpr, env *Env) (any, error) {
	left, err := in.evalExpr(n.Operands[0], env)
	if err != nil {
		return nil, err
	}
	for i, op := range n.Ops {
		right, err := in.evalExpr(n.Operands[i+1], env)
		if err != nil {
			return nil, err
		}
		ok, err := applyCompare(left, right, op, n.Pos.Line)
		if err != nil {
			return nil, err
		}
		if !ok {
			if in.rec != nil {
				in.rec.fail = &pairFailure{
					left:      left,
					right:     right,
					op:        op,
					leftSpan:  n.Operands[i].Span(),
					rightSpan: n.Operands[i+1].Span(),
				}
			}
			return false, nil
		}
		left = right
	}
	return true, nil
}

func applyCompare(left, right any, op string, line int) (bool, error) {
	switch op {
	case "==":
		return equal(left, right), nil
	case "!=":
		return !equal(left, right), nil
	default:
		return compare(left, right, op, line)
	}
}

// evalBool short-circuits: operands after the deciding one are never
// evaluated and therefore never captured. A failing comparison inside
// an operand that evaluates truthy did not decide anything, so its
// recorded failure is discarded rather than blamed in the explanation.
func (in *Interp) evalBool(n *parser.BoolExpr, env *Env) (any, error) {
	var last any
	var before *pairFailure
	if in.rec != nil {
		before = in.rec.fail
	}
	for _, operand := range n.Operands {
		v, err := in.evalExpr(operand, env)
		if err != nil {
			return nil, err
		}
		if truthy(v) {
			if in.rec != nil {
				in.rec.fail = before
			}
			if n.Op == "or" {
				return v, nil
			}
		} else if n.Op == "and" {
			return v, nil
		}
		last = v
	}
	return last, nil
}

func (in *Interp) evalCall(n *parser.CallExpr, env *Env) (any, error) {
	args := make([]any, len(n.Args))
	for i, arg := range n.Args {
		v, err := in.evalExpr(arg, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if fn, ok := in.funcs[n.Fn]; ok {
		if len(args) != len(fn.Params) {
			return nil, &RuntimeError{
				Message: fmt.Sprintf("%s expects %d arguments, got %d", n.Fn, len(fn.Params), len(args)),
				Line:    n.Pos.Line,
			}
		}
		fenv := NewEnv(in.globals)
		for i, p := range fn.Params {
			fenv.Define(p, args[i])
		}
		v, _, err := in.evalBlock(fn.Body, fenv)
		return v, err
	}

	if fn, ok := in.builtins.Lookup(n.Fn); ok {
		v, err := fn(args)
		if err != nil {
			return nil, &RuntimeError{Message: err.Error(), Line: n.Pos.Line}
		}
		return v, nil
	}

	return nil, &RuntimeError{Message: "undefined function " + n.Fn, Line: n.Pos.Line}
}

func indexValue(x, index any, line int) (any, error) {
	switch v := x.(type) {
	case []any:
		i, ok := index.(int64)
		if !ok {
			return nil, &RuntimeError{Message: "list index must be an int, got " + typeName(index), Line: line}
		}
		if i < 0 {
			i += int64(len(v))
		}
		if i < 0 || i >= int64(len(v)) {
			return nil, &RuntimeError{Message: fmt.Sprintf("list index %d out of range (len %d)", i, len(v)), Line: line}
		}
		return v[i], nil
	case map[string]any:
		k, ok := index.(string)
		if !ok {
			return nil, &RuntimeError{Message: "map key must be a string, got " + typeName(index), Line: line}
		}
		val, present := v[k]
		if !present {
			return nil, &RuntimeError{Message: "no key " + fmt.Sprintf("%q", k), Line: line}
		}
		return val, nil
	case string:
		i, ok := index.(int64)
		if !ok {
			return nil, &RuntimeError{Message: "string index must be an int, got " + typeName(index), Line: line}
		}
		if i < 0 {
			i += int64(len(v))
		}
		if i < 0 || i >= int64(len(v)) {
			return nil, &RuntimeError{Message: fmt.Sprintf("string index %d out of range (len %d)", i, len(v)), Line: line}
		}
		return string(v[i]), nil
	}
	return nil, &RuntimeError{Message: "cannot index " + typeName(x), Line: line}
}
