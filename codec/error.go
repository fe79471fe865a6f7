package codec

// Error distinguishes a fatal invariant violation (spec.md §7 "Invariant
// violation (abort)": corrupted stream state such as a negative length or
// an out-of-range tag) from the ordinary errors a Descriptor's Write/Read
// methods otherwise return. Callers that want to tell "the peer sent
// garbage, abandon the session" apart from an ordinary I/O error can
// type-assert for *Error; errors.Cause(err) still reaches the underlying
// pkg/errors cause either way.
type Error struct {
	// Op names the operation that detected the violation (e.g.
	// "ScriptValue.kind", "ListType.length"), for diagnostics.
	Op    string
	cause error
}

// Invariant wraps cause as a fatal invariant violation detected during op.
func Invariant(op string, cause error) *Error {
	return &Error{Op: op, cause: cause}
}

func (e *Error) Error() string {
	return "wirecodec: invariant violation in " + e.Op + ": " + e.cause.Error()
}

// Cause satisfies github.com/pkg/errors's Causer interface so
// errors.Cause(err) unwraps to the root fault.
func (e *Error) Cause() error { return e.cause }

// Unwrap supports the standard library's errors.Is/errors.As in addition
// to pkg/errors's Cause.
func (e *Error) Unwrap() error { return e.cause }

var _ error = (*Error)(nil)
var _ interface{ Cause() error } = (*Error)(nil)
