package analyze

import (
	"github.com/abdul-hamid-achik/introspec/packages/core/parser"
)

// Target is one opaque sub-expression whose runtime value is worth
// recording when the surrounding assertion fails: it gets an indented
// "where <value> = <source>" line in the explanation. Targets are
// keyed by source span, which survives the rewrite cache round trip,
// unlike node identity.
type Target struct {
	Span parser.Span
	// Depth is the call nesting level, starting at 1 for the outermost
	// "where" elaboration.
	Depth int
}

// Plan identifies which sub-expressions of one assertion condition the
// evaluator should record during its single evaluation pass. Immutable
// once built.
type Plan struct {
	Targets []Target
}

// Index returns a span-keyed lookup table for the plan. The evaluator
// consults it on every node it evaluates, so it is built once up front.
func (p *Plan) Index() map[parser.Span]Target {
	idx := make(map[parser.Span]Target, len(p.Targets))
	for _, t := range p.Targets {
		idx[t.Span] = t
	}
	return idx
}

// Analyze decomposes one assertion condition into a capture plan.
//
// Only top-level boolean and comparison structure is decomposed.
// Within a comparison, any call, field or index sub-expression is
// captured as a single opaque value for a "where" elaboration; the
// comparison operand values themselves travel with the failing pair
// the evaluator reports, so they need no plan entry. Short-circuit
// semantics are not encoded here: the plan lists candidates, and the
// evaluator only records the ones it actually evaluates.
func Analyze(cond parser.Expr) *Plan {
	p := &Plan{}
	p.condition(cond)
	return p
}

func (p *Plan) condition(e parser.Expr) {
	switch n := e.(type) {
	case *parser.BoolExpr:
		for _, operand := range n.Operands {
			p.condition(operand)
		}
	case *parser.UnaryExpr:
		if n.Op == "not" {
			p.condition(n.X)
			return
		}
		p.where(e, 0)
	case *parser.CompareExpr:
		for _, operand := range n.Operands {
			p.where(operand, 0)
		}
	default:
		p.where(e, 0)
	}
}

// where walks an operand looking for opaque value producers. Each one
// found deepens the nesting level for anything inside it.
func (p *Plan) where(e parser.Expr, depth int) {
	switch n := e.(type) {
	case *parser.CallExpr:
		p.add(e, depth+1)
		for _, arg := range n.Args {
			p.where(arg, depth+1)
		}
	case *parser.FieldExpr:
		p.add(e, depth+1)
		p.where(n.X, depth+1)
	case *parser.IndexExpr:
		p.add(e, depth+1)
		p.where(n.X, depth+1)
		p.where(n.Index, depth+1)
	case *parser.UnaryExpr:
		p.where(n.X, depth)
	case *parser.BinaryExpr:
		p.where(n.X, depth)
		p.where(n.Y, depth)
	case *parser.ListLit:
		for _, elem := range n.Elems {
			p.where(elem, depth)
		}
	case *parser.MapLit:
		for _, v := range n.Values {
			p.where(v, depth)
		}
	}
}

func (p *Plan) add(e parser.Expr, depth int) {
	span := e.Span()
	for i := range p.Targets {
		if p.Targets[i].Span == span {
			if depth > p.Targets[i].Depth {
				p.Targets[i].Depth = depth
			}
			return
		}
	}
	p.Targets = append(p.Targets, Target{Span: span, Depth: depth})
}
