package canvas

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports an argument the API cannot accept, such as
	// a drawImage source that is neither an Image nor an OffscreenCanvas.
	ErrInvalidArgument = errors.New("canvas: invalid argument")

	// ErrNotImplemented is returned by the placeholder OffscreenCanvas
	// methods.
	ErrNotImplemented = errors.New("canvas: method not implemented")
)

// DecodeError reports an image source that could not be fetched or decoded.
// It is only delivered through an Image's error event.
type DecodeError struct {
	Src string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("canvas: load image %q: %v", e.Src, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func notImplemented(method string) error {
	return fmt.Errorf("%w: OffscreenCanvas.%s", ErrNotImplemented, method)
}
