package sim

import (
	"context"
	"reflect"
	"slices"
	"time"

	"github.com/plus3/gravgrid/board"
)

// System is one phase of a tick. Systems may hold settings and state that persist
// between frames.
type System interface {
	Execute(frame *Frame)
}

// SystemFunc adapts a plain function to a System. SystemFuncs cannot be passed to
// RunSystem, since functions are not comparable.
type SystemFunc func(frame *Frame)

func (f SystemFunc) Execute(frame *Frame) {
	f(frame)
}

// SchedulerStats summarizes every registered system.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats holds timing for one system. Durations are wall clock per Execute call.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

func (st *SystemStats) record(d time.Duration) {
	if st.ExecutionCount == 0 || d < st.MinDuration {
		st.MinDuration = d
	}
	st.MaxDuration = max(st.MaxDuration, d)
	st.ExecutionCount++
	st.LastDuration = d
	st.TotalDuration += d
	st.AvgDuration = st.TotalDuration / time.Duration(st.ExecutionCount)
}

// Scheduler executes systems against a board in registration order.
type Scheduler struct {
	board   *board.Board
	ctx     *Context
	systems []System
	stats   []SystemStats
}

// NewScheduler creates a new scheduler for the given board and context.
func NewScheduler(b *board.Board, ctx *Context) *Scheduler {
	return &Scheduler{
		board:   b,
		ctx:     ctx,
		systems: make([]System, 0),
	}
}

// Register appends a system to the execution order.
func (s *Scheduler) Register(system System) {
	s.systems = append(s.systems, system)

	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}

	s.stats = append(s.stats, SystemStats{Name: systemType.Name()})
}

func (s *Scheduler) execute(i int, frame *Frame) {
	start := time.Now()
	s.systems[i].Execute(frame)
	s.stats[i].record(time.Since(start))
}

// Once executes all registered systems with the given delta time, flushes the
// command buffer and completes the frame.
func (s *Scheduler) Once(dt float64) *TickReport {
	frame := newFrame(dt, s.board, s.ctx)

	for i := range s.systems {
		s.execute(i, frame)
	}

	frame.Report.Reaped = append(frame.Report.Reaped, frame.Commands.Flush(s.board)...)

	s.ctx.Elapsed += dt
	s.ctx.LastDelta = dt
	s.ctx.Ticks++
	return frame.Report
}

// RunSystem executes a single registered system as its own frame and flushes its
// commands. The context clock is left to the caller. Panics if the system was
// never registered.
func (s *Scheduler) RunSystem(system System, dt float64) *TickReport {
	idx := -1
	for i, registered := range s.systems {
		if registered == system {
			idx = i
			break
		}
	}
	if idx == -1 {
		panic("sim: system not registered with scheduler")
	}

	frame := newFrame(dt, s.board, s.ctx)
	s.execute(idx, frame)
	frame.Report.Reaped = append(frame.Report.Reaped, frame.Commands.Flush(s.board)...)
	return frame.Report
}

// Run executes all systems repeatedly at the given interval until the context is cancelled.
// onFrame, if set, receives the report of every frame.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration, onFrame func(*TickReport)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			report := s.Once(dt)
			if onFrame != nil {
				onFrame(report)
			}
		}
	}
}

// GetStats returns a snapshot of per-system timing in registration order.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.systems),
		Systems:     slices.Clone(s.stats),
	}
	for _, st := range s.stats {
		stats.TotalExecutions += st.ExecutionCount
	}
	return stats
}
