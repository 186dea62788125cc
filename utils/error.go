package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// StateError marks a document-flow refusal: the source document is in a
// status that does not allow the requested operation, or there is nothing
// left to convert. Callers surface it as a single user-facing message and
// no persistence occurs.
type StateError struct {
	msg string
}

func (e *StateError) Error() string { return e.msg }

func NewStateError(msg string) error {
	return &StateError{msg: msg}
}

func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
