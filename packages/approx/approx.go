// Package approx implements tolerance-based numeric equality for
// assertion conditions: a wrapper value representing "expected within
// a relative and/or absolute tolerance" rather than exact equality.
//
// Wrappers compare symmetrically (approx(x) == y iff y == approx(x))
// and format themselves with an explicit tolerance annotation, using
// polar notation for complex expectations.
package approx

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"strings"
)

// Tolerance defaults, overridable through configuration.
const (
	DefaultRel = 1e-6
	DefaultAbs = 1e-12
)

// Approx wraps an expected value (scalar, complex, or homogeneous
// container of scalars) together with its tolerances. A zero Rel or
// Abs with the corresponding Set flag false means "use the default".
type Approx struct {
	Expected any
	Rel      float64
	Abs      float64
	RelSet   bool
	AbsSet   bool
}

// Option configures a wrapper at construction time.
type Option func(*Approx)

// WithRel sets an explicit relative tolerance.
func WithRel(rel float64) Option {
	return func(a *Approx) {
		a.Rel = rel
		a.RelSet = true
	}
}

// WithAbs sets an explicit absolute tolerance.
func WithAbs(abs float64) Option {
	return func(a *Approx) {
		a.Abs = abs
		a.AbsSet = true
	}
}

// New wraps an expected value for tolerant comparison.
func New(expected any, opts ...Option) *Approx {
	a := &Approx{Expected: expected}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// tolerance resolves the allowed deviation for one expected magnitude.
// When only an absolute tolerance is given it is used alone; otherwise
// the larger of the relative and absolute bands wins, so an expected
// value of exactly zero still has the absolute band around it.
func (a *Approx) tolerance(expectedMagnitude float64) float64 {
	abs := DefaultAbs
	if a.AbsSet {
		abs = a.Abs
	}
	if a.AbsSet && !a.RelSet {
		return abs
	}
	rel := DefaultRel
	if a.RelSet {
		rel = a.Rel
	}
	return math.Max(rel*expectedMagnitude, abs)
}

// Equal reports whether actual lies within the tolerance band. Mixed
// int/float comparisons are allowed; containers compare elementwise
// and must have matching shape.
func (a *Approx) Equal(actual any) bool {
	switch expected := a.Expected.(type) {
	case int64, float64:
		e, _ := toFloat(a.Expected)
		x, ok := toFloat(actual)
		if !ok {
			return false
		}
		if math.IsNaN(e) || math.IsNaN(x) {
			return false
		}
		return math.Abs(x-e) <= a.tolerance(math.Abs(e))
	case complex128:
		x, ok := toComplex(actual)
		if !ok {
			return false
		}
		return cmplx.Abs(x-expected) <= a.tolerance(cmplx.Abs(expected))
	case []any:
		xs, ok := actual.([]any)
		if !ok || len(xs) != len(expected) {
			return false
		}
		for i := range expected {
			if !a.elem(expected[i]).Equal(xs[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		xs, ok := actual.(map[string]any)
		if !ok || len(xs) != len(expected) {
			return false
		}
		for k, v := range expected {
			xv, present := xs[k]
			if !present || !a.elem(v).Equal(xv) {
				return false
			}
		}
		return true
	default:
		return a.Expected == actual
	}
}

// elem carries the wrapper's tolerances down to one container element.
func (a *Approx) elem(expected any) *Approx {
	return &Approx{Expected: expected, Rel: a.Rel, Abs: a.Abs, RelSet: a.RelSet, AbsSet: a.AbsSet}
}

// String renders the wrapper with its tolerance annotation:
// real scalars as `expected ± tolerance`, complex scalars in polar
// notation `expected ± radius ∠ ±angle`. The angle is ±180° because
// the tolerance band is a full circle around the expected point, so
// any direction of phase deviation is tolerated.
func (a *Approx) String() string {
	switch expected := a.Expected.(type) {
	case int64, float64:
		e, _ := toFloat(a.Expected)
		return fmt.Sprintf("%v ± %.1e", a.Expected, a.tolerance(math.Abs(e)))
	case complex128:
		return fmt.Sprintf("%v ± %.1e ∠ ±180°", expected, a.tolerance(cmplx.Abs(expected)))
	case []any:
		parts := make([]string, len(expected))
		for i, v := range expected {
			parts[i] = a.elem(v).String()
		}
		return "approx([" + strings.Join(parts, ", ") + "])"
	case map[string]any:
		keys := make([]string, 0, len(expected))
		for k := range expected {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%q: %s", k, a.elem(expected[k]).String())
		}
		return "approx({" + strings.Join(parts, ", ") + "})"
	default:
		return fmt.Sprintf("approx(%v)", a.Expected)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func toComplex(v any) (complex128, bool) {
	if c, ok := v.(complex128); ok {
		return c, true
	}
	if f, ok := toFloat(v); ok {
		return complex(f, 0), true
	}
	return 0, false
}
