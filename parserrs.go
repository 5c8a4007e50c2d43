package formulas

import (
	"strconv"
)

// BracketError is an error indicating a parenthesis with no matching close
// parenthesis. It implements InputError.
type BracketError struct {
	// Col is the 1-based byte position of the open parenthesis.
	Col int
	// Buffer is the literal buffer at the time the parenthesis was found.
	Buffer string
	// Folded is the text of the formula level before the failing term.
	// Its value is the accumulator at the time of the failure.
	Folded string
}

func (err *BracketError) Error() string {
	return errpos(err.Col, "open parenthesis with no close parenthesis")
}

func (err *BracketError) Pos() int {
	return err.Col
}

func (err *BracketError) folded() string {
	return err.Folded
}

// CallError is an error indicating a malformed function call: a function name
// with no argument list, or a two-argument function without a comma. It
// implements InputError.
type CallError struct {
	// Col is the position of the start of the call.
	Col int
	// Func is the function name, or the text following the call start when
	// there is no argument list.
	Func string
	// Buffer is the literal buffer at the time the call was found.
	Buffer string
	// Folded is the text of the formula level before the failing term.
	Folded string
}

func (err *CallError) Error() string {
	return errpos(err.Col, "malformed call of "+strconv.Quote(err.Func))
}

func (err *CallError) Pos() int {
	return err.Col
}

func (err *CallError) folded() string {
	return err.Folded
}

// ExponentError is an error in scientific notation: an exponent mark at the
// end of the input, or a mantissa which is not a number. It implements
// InputError.
type ExponentError struct {
	// Col is the position of the exponent mark.
	Col int
	// Mantissa is the text preceding the exponent mark.
	Mantissa string
	// Missing is true when the exponent mark ends the input.
	Missing bool
	// Folded is the text of the formula level before the failing term. It is
	// set only for errors found while parsing.
	Folded string
}

func (err *ExponentError) Error() string {
	if err.Missing {
		return errpos(err.Col, "exponent mark with no exponent")
	}
	if err.Mantissa == "" {
		return errpos(err.Col, "exponent with no mantissa")
	}
	return errpos(err.Col, "invalid mantissa "+strconv.Quote(err.Mantissa))
}

func (err *ExponentError) Pos() int {
	return err.Col
}

func (err *ExponentError) folded() string {
	return err.Folded
}

// ConditionError indicates a malformed conditional. It implements InputError.
type ConditionError struct {
	// Col is the position within the conditional body where the problem was
	// found.
	Col int
	// Body is the text of the conditional between its parentheses.
	Body string
	// Reason describes what is missing.
	Reason string
}

func (err *ConditionError) Error() string {
	return errpos(err.Col, "malformed conditional "+strconv.Quote(err.Body)+": "+err.Reason)
}

func (err *ConditionError) Pos() int {
	return err.Col
}

// DepthError indicates a formula nested more deeply than the parser allows.
// Unlike other errors in nested formulas, it is never contained; it always
// fails the whole formula.
type DepthError struct {
	// Col is the position of the nested formula which exceeded the limit.
	Col int
	// Max is the limit.
	Max int
}

func (err *DepthError) Error() string {
	return errpos(err.Col, "formula nested deeper than "+strconv.Itoa(err.Max))
}

func (err *DepthError) Pos() int {
	return err.Col
}

// FoldError wraps an error which occurred while folding a term into the
// accumulator, recording the scanner state at the time.
type FoldError struct {
	// Acc is the accumulator before the failed fold.
	Acc float64
	// Buffer is the text of the term which failed.
	Buffer string
	// Err is the underlying error.
	Err error
}

func (err *FoldError) Error() string {
	return "folding " + strconv.Quote(err.Buffer) + " into " + strconv.FormatFloat(err.Acc, 'g', -1, 64) + ": " + err.Err.Error()
}

func (err *FoldError) Unwrap() error {
	return err.Err
}

// foldedError is an error found partway through a formula level, which knows
// the text folded before it.
type foldedError interface {
	error
	folded() string
}

// withFolded records the folded text in a parse error which can hold it.
func withFolded(err error, src string) error {
	switch err := err.(type) {
	case *BracketError:
		err.Folded = src
	case *CallError:
		err.Folded = src
	case *ExponentError:
		err.Folded = src
	}
	return err
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// InputError is an error with position information. Every error resulting from
// invalid input implements InputError.
type InputError interface {
	error
	// Pos returns the 1-based byte position of the error within the formula
	// level where it was found.
	Pos() int
}

var (
	_ InputError = (*BracketError)(nil)
	_ InputError = (*CallError)(nil)
	_ InputError = (*ExponentError)(nil)
	_ InputError = (*ConditionError)(nil)
	_ InputError = (*DepthError)(nil)
)
