package sim

import "github.com/plus3/gravgrid/board"

// Context is the per-simulation clock and signal state. It is owned by the host
// through its Simulation and handed to every system in the Frame.
type Context struct {
	Elapsed        float64 // seconds fed to resolution so far
	Ticks          uint64  // completed frames
	LastDelta      float64
	PendingSignals int // remove signals waiting for the next trigger phase
}

// Move describes one block stepping down a row. OffsetY is the visual displacement
// the host applies to its representation of the block; negative is downward.
type Move struct {
	Id      board.BlockId
	X       int
	FromY   int
	Y       int
	OffsetY float64
}

// TickReport collects everything that happened during one frame.
type TickReport struct {
	Tick      uint64
	DeltaTime float64
	Removed   []board.BlockId
	Falling   []board.BlockId // newly tagged this frame
	Moves     []Move
	Blocked   []board.BlockId
	Grounded  []board.BlockId
	Reaped    []board.BlockId
}

// Frame is passed to every system executed in a tick.
type Frame struct {
	DeltaTime float64
	Board     *board.Board
	Context   *Context
	Commands  *Commands
	Report    *TickReport
}

func newFrame(dt float64, b *board.Board, ctx *Context) *Frame {
	return &Frame{
		DeltaTime: dt,
		Board:     b,
		Context:   ctx,
		Commands:  newCommands(),
		Report: &TickReport{
			Tick:      ctx.Ticks,
			DeltaTime: dt,
		},
	}
}
