// Package sim runs the gravity grid: removal triggering, fall propagation, fall
// resolution and reaping, in that order, once per frame.
//
// A host either calls Tick once per frame, or drives the phases itself with
// TickPropagation, TickResolution and Reap. Everything runs on the caller's goroutine;
// a Simulation is not safe for concurrent use.
package sim

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/plus3/gravgrid/board"
	"github.com/plus3/gravgrid/config"
)

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger used by the simulation and its systems.
func WithLogger(logger *log.Logger) Option {
	return func(s *Simulation) {
		s.logger = logger
	}
}

// WithBoard runs the simulation over an existing board instead of a fresh one.
func WithBoard(b *board.Board) Option {
	return func(s *Simulation) {
		s.board = b
	}
}

// Simulation owns a board, its context and the systems that advance it.
type Simulation struct {
	board           *board.Board
	ctx             *Context
	scheduler       *Scheduler
	logger          *log.Logger
	checkInvariants bool

	removal     *RemovalSystem
	propagation *PropagationSystem
	resolution  *ResolutionSystem
	reap        *ReapSystem
}

// New creates a simulation from the gravity and checks sections of cfg.
func New(cfg config.Config, opts ...Option) *Simulation {
	s := &Simulation{
		ctx:             &Context{},
		checkInvariants: cfg.Checks.Invariants,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.board == nil {
		s.board = board.New()
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}

	s.removal = &RemovalSystem{Logger: s.logger}
	s.propagation = &PropagationSystem{}
	s.resolution = &ResolutionSystem{
		SettleThreshold: cfg.Gravity.SettleThreshold,
		RowHeight:       cfg.Gravity.RowHeight,
		TimerPolicy:     cfg.Gravity.TimerPolicy,
		Logger:          s.logger,
	}
	s.reap = &ReapSystem{Logger: s.logger}

	s.scheduler = NewScheduler(s.board, s.ctx)
	s.scheduler.Register(s.removal)
	s.scheduler.Register(s.propagation)
	s.scheduler.Register(s.resolution)
	s.scheduler.Register(s.reap)
	return s
}

// InitializeGrid lays out one block per cell of a rows x cols grid.
func (s *Simulation) InitializeGrid(rows, cols int) ([]board.Block, error) {
	blocks, err := s.board.InitializeGrid(rows, cols)
	if err != nil {
		return nil, err
	}
	s.logger.Info("grid initialized", "rows", rows, "cols", cols, "blocks", len(blocks))
	return blocks, nil
}

// OnRemoveSignal removes the first eligible block immediately. It returns false
// when no Normal block is left.
func (s *Simulation) OnRemoveSignal() (board.BlockId, bool) {
	return s.removal.Trigger(s.board)
}

// RemoveAt removes the Normal block at (x, y) immediately.
func (s *Simulation) RemoveAt(x, y int) (board.BlockId, bool) {
	return s.removal.TriggerAt(s.board, x, y)
}

// Signal queues a remove signal for the trigger phase of the next Tick, or of the
// next TickPropagation when the host drives the phases itself.
func (s *Simulation) Signal() {
	s.ctx.PendingSignals++
}

// TickPropagation consumes queued signals, then tags blocks above Removed blocks as
// Falling and returns the newly tagged ids.
func (s *Simulation) TickPropagation(dt float64) []board.BlockId {
	if s.ctx.PendingSignals > 0 {
		s.scheduler.RunSystem(s.removal, dt)
	}
	return s.scheduler.RunSystem(s.propagation, dt).Falling
}

// TickResolution advances Falling blocks and returns the moves made.
func (s *Simulation) TickResolution(dt float64) []Move {
	report := s.scheduler.RunSystem(s.resolution, dt)
	s.ctx.Elapsed += dt
	s.ctx.LastDelta = dt
	s.check()
	return report.Moves
}

// Reap destroys every Removed block, completes the frame and returns the
// destroyed ids.
func (s *Simulation) Reap() []board.BlockId {
	reaped := s.scheduler.RunSystem(s.reap, s.ctx.LastDelta).Reaped
	s.ctx.Ticks++
	return reaped
}

// Tick runs a full frame: queued signals, propagation, resolution and reap.
func (s *Simulation) Tick(dt float64) *TickReport {
	report := s.scheduler.Once(dt)
	s.check()
	return report
}

// Run ticks on a wall-clock interval until ctx is cancelled.
func (s *Simulation) Run(ctx context.Context, interval time.Duration, onFrame func(*TickReport)) {
	s.scheduler.Run(ctx, interval, func(report *TickReport) {
		s.check()
		if onFrame != nil {
			onFrame(report)
		}
	})
}

// Board returns the simulated board.
func (s *Simulation) Board() *board.Board {
	return s.board
}

// Context returns the simulation clock and signal state.
func (s *Simulation) Context() *Context {
	return s.ctx
}

// Stats returns per-system execution statistics.
func (s *Simulation) Stats() *SchedulerStats {
	return s.scheduler.GetStats()
}

// Validate checks the board invariants.
func (s *Simulation) Validate() error {
	return s.board.Validate()
}

func (s *Simulation) check() {
	if !s.checkInvariants {
		return
	}
	if err := s.board.Validate(); err != nil {
		s.logger.Error("board invariant violated", "error", err)
		panic(err)
	}
}
