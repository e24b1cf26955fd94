package board

import "fmt"

// BlockId encodes both the slot generation (upper 32 bits) and the slot index (lower 32 bits).
// Generations start at 1, so the zero BlockId never refers to a block.
type BlockId uint64

// NewBlockId creates a BlockId from a slot generation and slot index
func NewBlockId(generation uint32, index uint32) BlockId {
	return BlockId(uint64(generation)<<32 | uint64(index))
}

// Generation extracts the slot generation from the block ID
func (id BlockId) Generation() uint32 {
	return uint32(id >> 32)
}

// Index extracts the slot index from the block ID
func (id BlockId) Index() uint32 {
	return uint32(id & 0xFFFFFFFF)
}

func (id BlockId) String() string {
	return fmt.Sprintf("%d:%d", id.Index(), id.Generation())
}

// State is the lifecycle state of a block.
type State uint8

const (
	Normal State = iota
	Removed
	Falling
)

func (s State) String() string {
	switch s {
	case Normal:
		return "normal"
	case Removed:
		return "removed"
	case Falling:
		return "falling"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Block is a unit cell on the board. Y grows upward from the bottom row at 0.
type Block struct {
	Id    BlockId
	X, Y  int
	State State

	// SettleTimer is the time in seconds accumulated while Falling.
	SettleTimer float64
}

// Live reports whether the block still takes part in occupancy.
func (b Block) Live() bool {
	return b.State != Removed
}

// cellKey packs a coordinate pair for the occupancy index.
type cellKey uint64

func keyOf(x, y int) cellKey {
	return cellKey(uint64(uint32(x))<<32 | uint64(uint32(y)))
}
