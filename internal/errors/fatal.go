package errors

import (
	"errors"
	"fmt"
)

// fatalError is an error that should be printed to the user, then the program
// should exit with an error code. A zero code leaves the choice of the exit
// status to the caller.
type fatalError struct {
	msg  string
	code int
	err  error // Underlying error
}

func (e *fatalError) Error() string {
	return e.msg
}

func (e *fatalError) Unwrap() error {
	return e.err
}

// IsFatal returns true if err is a fatal message that should be printed to the
// user. Then, the program should exit.
func IsFatal(err error) bool {
	var fatal *fatalError
	return errors.As(err, &fatal)
}

// ExitCode returns the exit code attached to a fatal error with FatalCode, and
// false if there is none.
func ExitCode(err error) (int, bool) {
	var fatal *fatalError
	if !errors.As(err, &fatal) || fatal.code == 0 {
		return 0, false
	}
	return fatal.code, true
}

// Fatal returns an error that is marked fatal.
func Fatal(s string) error {
	return Wrap(&fatalError{msg: s}, "Fatal")
}

// Fatalf returns an error that is marked fatal, preserving an underlying error if passed.
func Fatalf(s string, data ...interface{}) error {
	return Wrap(newFatal(0, s, data...), "Fatal")
}

// FatalCode returns a fatal error which requests the exit code code.
func FatalCode(code int, s string, data ...interface{}) error {
	return Wrap(newFatal(code, s, data...), "Fatal")
}

func newFatal(code int, s string, data ...interface{}) *fatalError {
	// Use the last error found.
	var underlyingErr error
	for i := len(data) - 1; i >= 0; i-- {
		if err, ok := data[i].(error); ok {
			underlyingErr = err
			break
		}
	}

	return &fatalError{
		msg:  fmt.Sprintf(s, data...),
		code: code,
		err:  underlyingErr,
	}
}
