package button

import (
	"errors"
	"fmt"
)

// MaxCallbackData is the server limit for callback payloads, in bytes.
const MaxCallbackData = 64

var (
	ErrDataTooLong     = errors.New("callback data too long")
	ErrInlineOnly      = errors.New("only inline buttons are allowed here")
	ErrMixedCategories = errors.New("cannot mix inline and keyboard buttons")
	ErrNoButtons       = errors.New("no valid buttons")
)

// ValidationError reports button input the server would reject.
// Err is one of the sentinels above.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := "button: "
	if e.Field != "" {
		msg += e.Field + ": "
	}
	if e.Err != nil {
		msg += e.Err.Error()
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid builds a ValidationError for field.
func Invalid(field string, err error, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...), Err: err}
}
