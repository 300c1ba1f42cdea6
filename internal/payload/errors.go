package payload

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDigit     = errors.New("invalid digit")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidRange     = errors.New("invalid range code")
	ErrInvalidSource    = errors.New("payload source must be live or pre-recorded")
)

// DecodeError reports why a payload was rejected. It matches its sentinel
// with errors.Is.
type DecodeError struct {
	Err    error
	Offset int
	Value  byte
	Detail string
}

func (e *DecodeError) Error() string {
	switch {
	case errors.Is(e.Err, ErrInvalidDigit):
		return fmt.Sprintf("%v 0x%02X at payload byte %d", e.Err, e.Value, e.Offset)
	case e.Detail != "":
		return fmt.Sprintf("%v: %s", e.Err, e.Detail)
	default:
		return e.Err.Error()
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }
