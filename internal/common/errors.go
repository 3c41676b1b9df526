package common

import "errors"

// RecoverableError marks a failure that only affects one section of a render
// (a live-weather fetch, a single feature forecast). The rest of the pipeline
// keeps going.
type RecoverableError struct {
	Op  string
	Err error
}

func (e *RecoverableError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *RecoverableError) Unwrap() error { return e.Err }

// FatalError halts the whole render: nothing downstream of the failing stage
// is attempted.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *FatalError) Unwrap() error { return e.Err }

// Recoverable wraps err as a RecoverableError. A nil err stays nil.
func Recoverable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RecoverableError{Op: op, Err: err}
}

// Fatal wraps err as a FatalError. A nil err stays nil.
func Fatal(op string, err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Op: op, Err: err}
}

// IsFatal reports whether any error in err's chain is a FatalError.
func IsFatal(err error) bool {
	var f *FatalError
	return errors.As(err, &f)
}

// IsRecoverable reports whether any error in err's chain is a RecoverableError
// and none of it is fatal.
func IsRecoverable(err error) bool {
	if IsFatal(err) {
		return false
	}
	var r *RecoverableError
	return errors.As(err, &r)
}
