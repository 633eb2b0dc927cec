package interp

// RuntimeError is any failure during expression evaluation other than
// an assertion being false: unknown names, bad operand types, division
// by zero. It propagates out of the assertion machinery unchanged and
// is never reinterpreted as an assertion failure.
type RuntimeError struct {
	Message string
	Line    int
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// AssertionError is the failure signal raised when an asserted
// condition evaluates to false. Explanation carries the assembled
// multi-line text consumed by the reporting layer.
type AssertionError struct {
	Explanation string
	CondSource  string
	Line        int
}

func (e *AssertionError) Error() string {
	return e.Explanation
}
