package board

import (
	"errors"
	"fmt"
)

var (
	ErrCellOccupied      = errors.New("cell already occupied")
	ErrOutOfBounds       = errors.New("coordinates out of bounds")
	ErrInvalidDimensions = errors.New("invalid board dimensions")
	ErrUnknownBlock      = errors.New("unknown block")
)

// InvariantError reports two live blocks sharing a cell. It is a logic error,
// never a condition the simulation can recover from.
type InvariantError struct {
	X, Y  int
	First BlockId
	Other BlockId
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated: blocks %s and %s both occupy (%d, %d)", e.First, e.Other, e.X, e.Y)
}
