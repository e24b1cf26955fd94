// Package board holds the blocks of a gravity grid and answers occupancy queries.
//
// The Board owns every Block. Blocks live in chunked slot storage and are addressed by
// BlockId handles that stop resolving once the block is deleted. A hash index from cell to
// block tracks live (non-removed) blocks, so occupancy queries never see a Removed block,
// even in the frame it was removed.
package board

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/kamstrup/intmap"
)

// Board is the logical grid container. It is not safe for concurrent use.
type Board struct {
	slots slotStorage
	cells *intmap.Map[cellKey, BlockId]
	rows  int
	cols  int
	live  int
}

// New creates an empty board. Use InitializeGrid to lay out blocks.
func New() *Board {
	return &Board{
		cells: intmap.New[cellKey, BlockId](256),
	}
}

// InitializeGrid spawns one block per cell of a rows x cols grid and returns them
// in board order.
func (b *Board) InitializeGrid(rows, cols int) ([]Block, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("initialize %dx%d grid: %w", rows, cols, ErrInvalidDimensions)
	}

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if _, err := b.Spawn(x, y); err != nil {
				return nil, fmt.Errorf("initialize %dx%d grid: %w", rows, cols, err)
			}
		}
	}

	b.rows = max(b.rows, rows)
	b.cols = max(b.cols, cols)
	return b.Blocks(), nil
}

// Spawn creates a Normal block at (x, y).
func (b *Board) Spawn(x, y int) (BlockId, error) {
	if x < 0 || y < 0 {
		return 0, fmt.Errorf("spawn at (%d, %d): %w", x, y, ErrOutOfBounds)
	}
	if other, ok := b.cells.Get(keyOf(x, y)); ok {
		return 0, fmt.Errorf("spawn at (%d, %d) held by %s: %w", x, y, other, ErrCellOccupied)
	}

	index, generation := b.slots.append(Block{X: x, Y: y, State: Normal})
	id := NewBlockId(generation, uint32(index))
	b.slots.at(index).Id = id

	b.cells.Put(keyOf(x, y), id)
	b.live++
	return id, nil
}

// resolve returns the stored block for id, or nil if id is stale.
func (b *Board) resolve(id BlockId) *Block {
	return b.slots.get(int(id.Index()), id.Generation())
}

// Get returns a copy of the block for id.
func (b *Board) Get(id BlockId) (Block, bool) {
	blk := b.resolve(id)
	if blk == nil {
		return Block{}, false
	}
	return *blk, true
}

// Len returns the number of blocks on the board, Removed ones included.
func (b *Board) Len() int {
	return b.slots.len()
}

// Live returns the number of blocks that are not Removed.
func (b *Board) Live() int {
	return b.live
}

// Rows returns the number of rows laid out by InitializeGrid.
func (b *Board) Rows() int {
	return b.rows
}

// Cols returns the number of columns laid out by InitializeGrid.
func (b *Board) Cols() int {
	return b.cols
}

// Blocks returns all blocks ordered by ascending y, then x, then id.
// This order is what "first" means for removal and the order falling blocks resolve in.
func (b *Board) Blocks() []Block {
	blocks := make([]Block, 0, b.slots.len())
	for index := range b.slots.iter() {
		blocks = append(blocks, *b.slots.at(index))
	}
	slices.SortFunc(blocks, compareBlocks)
	return blocks
}

func compareBlocks(a, c Block) int {
	if n := cmp.Compare(a.Y, c.Y); n != 0 {
		return n
	}
	if n := cmp.Compare(a.X, c.X); n != 0 {
		return n
	}
	return cmp.Compare(a.Id, c.Id)
}

// OccupancyInColumn returns the rows of all live blocks in column x, ascending.
// Columns outside the grid yield an empty result.
func (b *Board) OccupancyInColumn(x int) []int {
	if x < 0 || (b.cols > 0 && x >= b.cols) {
		return nil
	}

	var ys []int
	for index := range b.slots.iter() {
		blk := b.slots.at(index)
		if blk.X == x && blk.Live() {
			ys = append(ys, blk.Y)
		}
	}
	slices.Sort(ys)
	return ys
}

// At returns the live block occupying (x, y).
func (b *Board) At(x, y int) (BlockId, bool) {
	return b.cells.Get(keyOf(x, y))
}

// OccupiedBelow reports whether another live block sits directly under id.
func (b *Board) OccupiedBelow(id BlockId) bool {
	blk := b.resolve(id)
	if blk == nil || blk.Y == 0 {
		return false
	}
	other, ok := b.cells.Get(keyOf(blk.X, blk.Y-1))
	return ok && other != id
}

// MarkRemoved tags a block Removed and drops it from occupancy.
// Returns false if the block is unknown or already Removed.
func (b *Board) MarkRemoved(id BlockId) bool {
	blk := b.resolve(id)
	if blk == nil || blk.State == Removed {
		return false
	}

	b.unindex(blk)
	blk.State = Removed
	blk.SettleTimer = 0
	b.live--
	return true
}

// MarkFalling tags a Normal block Falling with a zero settle timer.
// A block that is already Falling keeps its timer. Returns true only when newly tagged.
func (b *Board) MarkFalling(id BlockId) bool {
	blk := b.resolve(id)
	if blk == nil || blk.State != Normal {
		return false
	}

	blk.State = Falling
	blk.SettleTimer = 0
	return true
}

// Settle clears the Falling state of a block.
func (b *Board) Settle(id BlockId) bool {
	blk := b.resolve(id)
	if blk == nil || blk.State != Falling {
		return false
	}

	blk.State = Normal
	blk.SettleTimer = 0
	return true
}

// AddSettleTime accumulates dt on a Falling block's timer and returns the new value.
func (b *Board) AddSettleTime(id BlockId, dt float64) float64 {
	blk := b.resolve(id)
	if blk == nil || blk.State != Falling {
		return 0
	}
	blk.SettleTimer += dt
	return blk.SettleTimer
}

// ResetSettleTimer zeroes a Falling block's timer.
func (b *Board) ResetSettleTimer(id BlockId) {
	if blk := b.resolve(id); blk != nil && blk.State == Falling {
		blk.SettleTimer = 0
	}
}

// MoveDown moves a live block one row down.
func (b *Board) MoveDown(id BlockId) error {
	blk := b.resolve(id)
	if blk == nil || !blk.Live() {
		return fmt.Errorf("move %s: %w", id, ErrUnknownBlock)
	}
	if blk.Y == 0 {
		return fmt.Errorf("move %s below (%d, 0): %w", id, blk.X, ErrOutOfBounds)
	}

	target := keyOf(blk.X, blk.Y-1)
	if other, ok := b.cells.Get(target); ok && other != id {
		return fmt.Errorf("move %s to (%d, %d) held by %s: %w", id, blk.X, blk.Y-1, other, ErrCellOccupied)
	}

	b.unindex(blk)
	blk.Y--
	b.cells.Put(target, id)
	return nil
}

// Delete destroys a block. Its id never resolves again.
func (b *Board) Delete(id BlockId) bool {
	blk := b.resolve(id)
	if blk == nil {
		return false
	}

	if blk.Live() {
		b.unindex(blk)
		b.live--
	}
	b.slots.delete(int(id.Index()))
	return true
}

func (b *Board) unindex(blk *Block) {
	key := keyOf(blk.X, blk.Y)
	if other, ok := b.cells.Get(key); ok && other == blk.Id {
		b.cells.Del(key)
	}
}

// Validate rebuilds occupancy from scratch and checks that no two live blocks share a
// cell and that the index agrees with block positions.
func (b *Board) Validate() error {
	seen := intmap.New[cellKey, BlockId](max(b.live, 8))
	for _, blk := range b.Blocks() {
		if !blk.Live() {
			continue
		}

		key := keyOf(blk.X, blk.Y)
		if other, ok := seen.Get(key); ok {
			return &InvariantError{X: blk.X, Y: blk.Y, First: other, Other: blk.Id}
		}
		seen.Put(key, blk.Id)

		if indexed, ok := b.cells.Get(key); !ok || indexed != blk.Id {
			return fmt.Errorf("occupancy index out of sync at (%d, %d) for %s", blk.X, blk.Y, blk.Id)
		}
	}

	if seen.Len() != b.cells.Len() {
		return fmt.Errorf("occupancy index holds %d cells, board has %d live blocks", b.cells.Len(), seen.Len())
	}
	return nil
}
