package game

import "fmt"

type ErrorKind string

const (
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindOutOfTurn        ErrorKind = "OUT_OF_TURN"
	KindInvalidPhase     ErrorKind = "INVALID_PHASE"
	KindIllegalMove      ErrorKind = "ILLEGAL_MOVE"
	KindCapacityExceeded ErrorKind = "CAPACITY_EXCEEDED"
)

// Error is a rejected command. Kind is stable and safe to hand to clients.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

// Is matches any Error of the same kind, so errors.Is(err, ErrOutOfTurn)
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrOutOfTurn        = &Error{Kind: KindOutOfTurn}
	ErrInvalidPhase     = &Error{Kind: KindInvalidPhase}
	ErrIllegalMove      = &Error{Kind: KindIllegalMove}
	ErrCapacityExceeded = &Error{Kind: KindCapacityExceeded}
)

func errorf(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
