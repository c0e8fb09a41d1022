package pic

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedHeader is returned when the header cannot be read
	ErrMalformedHeader = errors.New("pic: malformed header")
	// ErrRegionOutOfBounds is returned when a region doesn't fit within
	// the file
	ErrRegionOutOfBounds = errors.New("pic: region out of bounds")
	// ErrInvalidSpanTable is returned when the span table isn't a whole
	// number of records
	ErrInvalidSpanTable = errors.New("pic: invalid span table")
	// ErrSpanBounds is returned when a span lies outside the image or the
	// pixel data
	ErrSpanBounds = errors.New("pic: span out of bounds")
	// ErrPalette is returned when a palette is malformed or can't resolve
	// a color index
	ErrPalette = errors.New("pic: palette error")
	// ErrUnsupportedFormat is returned for any format other than
	// FormatSpans
	ErrUnsupportedFormat = errors.New("pic: unsupported format")
)

// Error records which field failed a check, and its value. It unwraps to one
// of the package sentinel errors.
type Error struct {
	Err   error
	Field string
	Value uint64
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s %d", e.Err, e.Field, e.Value)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(err error, field string, value uint64) error {
	return &Error{
		Err:   err,
		Field: field,
		Value: value,
	}
}
