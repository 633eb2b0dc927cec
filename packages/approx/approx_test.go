package approx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApprox_DefaultRelativeTolerance(t *testing.T) {
	tests := []struct {
		name     string
		expected any
		actual   any
		want     bool
	}{
		{"exact", 0.3, 0.3, true},
		{"float artifact", 0.3, 0.1 + 0.2, true},
		{"within rel band", 100.0, 100.00009, true},
		{"outside rel band", 100.0, 100.1, false},
		{"int vs float", int64(4), 4.0000001, true},
		{"zero uses abs band", 0.0, 1e-13, true},
		{"zero outside abs band", 0.0, 1e-9, false},
		{"non-numeric actual", 1.0, "1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.expected).Equal(tt.actual))
		})
	}
}

func TestApprox_ExplicitTolerances(t *testing.T) {
	// rel alone widens the band proportionally to the expectation.
	assert.True(t, New(100.0, WithRel(0.01)).Equal(100.9))
	assert.False(t, New(100.0, WithRel(0.01)).Equal(102.0))

	// abs alone is used without the relative fallback.
	assert.True(t, New(100.0, WithAbs(0.5)).Equal(100.4))
	assert.False(t, New(100.0, WithAbs(0.5)).Equal(100.6))

	// both set: the larger band wins.
	a := New(100.0, WithRel(0.01), WithAbs(0.1))
	assert.True(t, a.Equal(100.9))
	assert.False(t, a.Equal(101.5))
}

func TestApprox_NaNNeverEqual(t *testing.T) {
	nan := 0.0
	nan /= nan
	assert.False(t, New(nan).Equal(nan))
	assert.False(t, New(1.0).Equal(nan))
}

func TestApprox_Complex(t *testing.T) {
	expected := complex(3, 4)
	assert.True(t, New(expected).Equal(complex(3, 4)))
	assert.True(t, New(expected).Equal(complex(3.0000001, 4)))
	assert.False(t, New(expected).Equal(complex(3.1, 4)))

	// real actuals coerce to complex
	assert.True(t, New(complex(2, 0)).Equal(2.0))
}

func TestApprox_Containers(t *testing.T) {
	list := []any{1.0, 2.0}
	assert.True(t, New(list).Equal([]any{1.0000001, 2.0}))
	assert.False(t, New(list).Equal([]any{1.1, 2.0}))
	assert.False(t, New(list).Equal([]any{1.0}))

	m := map[string]any{"a": 1.0, "b": 2.0}
	assert.True(t, New(m).Equal(map[string]any{"a": 1.0000001, "b": 2.0}))
	assert.False(t, New(m).Equal(map[string]any{"a": 1.0, "c": 2.0}))
}

func TestApprox_String(t *testing.T) {
	assert.Equal(t, "5 ± 5.0e-06", New(5.0).String())
	assert.Equal(t, "(3+4i) ± 5.0e-06 ∠ ±180°", New(complex(3, 4)).String())
	assert.Equal(t, "100 ± 5.0e-01", New(100.0, WithAbs(0.5)).String())
	assert.Contains(t, New([]any{1.0}).String(), "approx([")
}
