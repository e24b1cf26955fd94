package sim

import (
	"github.com/charmbracelet/log"

	"github.com/plus3/gravgrid/board"
	"github.com/plus3/gravgrid/config"
)

// RemovalSystem consumes queued remove signals, one removal per signal.
type RemovalSystem struct {
	Logger *log.Logger
}

func (s *RemovalSystem) Execute(frame *Frame) {
	for frame.Context.PendingSignals > 0 {
		frame.Context.PendingSignals--
		if id, ok := s.Trigger(frame.Board); ok {
			frame.Report.Removed = append(frame.Report.Removed, id)
		}
	}
}

// Trigger marks the first Normal block in board order Removed.
// Falling and already Removed blocks are not eligible.
func (s *RemovalSystem) Trigger(b *board.Board) (board.BlockId, bool) {
	for _, blk := range b.Blocks() {
		if blk.State != board.Normal {
			continue
		}
		b.MarkRemoved(blk.Id)
		s.Logger.Debug("block removed", "id", blk.Id, "x", blk.X, "y", blk.Y)
		return blk.Id, true
	}
	return 0, false
}

// TriggerAt marks the Normal block at (x, y) Removed.
func (s *RemovalSystem) TriggerAt(b *board.Board, x, y int) (board.BlockId, bool) {
	id, ok := b.At(x, y)
	if !ok {
		return 0, false
	}
	if blk, _ := b.Get(id); blk.State != board.Normal {
		return 0, false
	}
	b.MarkRemoved(id)
	s.Logger.Debug("block removed", "id", id, "x", x, "y", y)
	return id, true
}

// PropagationSystem tags every live block above a Removed block in the same column
// as Falling. Removed positions are gathered fresh each frame.
type PropagationSystem struct{}

func (s *PropagationSystem) Execute(frame *Frame) {
	blocks := frame.Board.Blocks()

	var removed []board.Block
	for _, blk := range blocks {
		if blk.State == board.Removed {
			removed = append(removed, blk)
		}
	}
	if len(removed) == 0 {
		return
	}

	for _, blk := range blocks {
		if !blk.Live() {
			continue
		}
		for _, r := range removed {
			if blk.X == r.X && blk.Y > r.Y {
				if frame.Board.MarkFalling(blk.Id) {
					frame.Report.Falling = append(frame.Report.Falling, blk.Id)
				}
				break
			}
		}
	}
}

// ResolutionSystem steps Falling blocks down one row at a time. A block waits until
// its settle timer passes SettleThreshold, then grounds on row 0, holds while the
// cell below is occupied, or moves down.
type ResolutionSystem struct {
	SettleThreshold float64
	RowHeight       float64
	TimerPolicy     config.TimerPolicy
	Logger          *log.Logger
}

func (s *ResolutionSystem) Execute(frame *Frame) {
	b := frame.Board

	// Lowest rows first, so a block can follow one that just cleared the cell below it.
	for _, blk := range b.Blocks() {
		if blk.State != board.Falling {
			continue
		}

		if b.AddSettleTime(blk.Id, frame.DeltaTime) <= s.SettleThreshold {
			continue
		}

		if blk.Y == 0 {
			b.Settle(blk.Id)
			frame.Report.Grounded = append(frame.Report.Grounded, blk.Id)
			s.Logger.Debug("block grounded", "id", blk.Id, "x", blk.X)
			continue
		}

		if b.OccupiedBelow(blk.Id) {
			frame.Report.Blocked = append(frame.Report.Blocked, blk.Id)
			continue
		}

		if err := b.MoveDown(blk.Id); err != nil {
			s.Logger.Error("falling block could not move", "id", blk.Id, "error", err)
			continue
		}
		if s.TimerPolicy != config.TimerAccumulate {
			b.ResetSettleTimer(blk.Id)
		}

		frame.Report.Moves = append(frame.Report.Moves, Move{
			Id:      blk.Id,
			X:       blk.X,
			FromY:   blk.Y,
			Y:       blk.Y - 1,
			OffsetY: -s.RowHeight,
		})
	}
}

// ReapSystem queues every Removed block for deletion at the end of the frame.
type ReapSystem struct {
	Logger *log.Logger
}

func (s *ReapSystem) Execute(frame *Frame) {
	queued := 0
	for _, blk := range frame.Board.Blocks() {
		if blk.State == board.Removed {
			frame.Commands.Delete(blk.Id)
			queued++
		}
	}
	if queued > 0 {
		s.Logger.Debug("reaping removed blocks", "count", queued)
	}
}
