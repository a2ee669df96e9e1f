package bridge

import (
	"errors"
	"fmt"

	"github.com/danmuck/leobridge/internal/outline"
)

var (
	ErrInvalidPosition   = errors.New("bridge: invalid position")
	ErrUnknownIdentifier = errors.New("bridge: unknown identifier")
	ErrNoDocumentOpen    = errors.New("bridge: no document open")
	ErrUnknownAction     = errors.New("bridge: unknown action")
	ErrInvalidParam      = errors.New("bridge: invalid param")
	ErrConsistency       = errors.New("bridge: consistency check failed")
	ErrCatalogueMismatch = errors.New("bridge: action catalogue mismatch")
)

// ConsistencyError names the position whose round trip failed. It means the
// codec or the engine is broken and is never downgraded to a request error.
type ConsistencyError struct {
	Position outline.Position
	Reason   string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%v at %s: %s", ErrConsistency, e.Position, e.Reason)
}

func (e *ConsistencyError) Unwrap() error {
	return ErrConsistency
}
