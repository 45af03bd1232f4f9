package timeline

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the layout engine. Match them with errors.Is.
var (
	ErrInvalidTimeline  = errors.New("invalid timeline")
	ErrUnsupportedStyle = errors.New("unsupported style")
	ErrInvalidAnimation = errors.New("invalid animation")
	ErrLayoutOverflow   = errors.New("layout overflow")
)

// Error is a layout-stage failure. Milestone is the input index of the
// offending milestone, or -1 when the failure concerns the whole timeline.
type Error struct {
	Kind      error
	Milestone int
	Msg       string
}

// Errorf builds an *Error of the given kind.
func Errorf(kind error, milestone int, format string, args ...any) *Error {
	return &Error{Kind: kind, Milestone: milestone, Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Milestone >= 0 {
		return fmt.Sprintf("%v: milestone %d: %s", e.Kind, e.Milestone, e.Msg)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }
