package sim_test

import (
	"context"
	"testing"
	"time"

	"github.com/plus3/gravgrid/board"
	"github.com/plus3/gravgrid/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSystem struct {
	name  string
	trace *[]string
	dts   []float64
}

func (s *recordingSystem) Execute(frame *sim.Frame) {
	*s.trace = append(*s.trace, s.name)
	s.dts = append(s.dts, frame.DeltaTime)
}

type deletingSystem struct{}

func (s *deletingSystem) Execute(frame *sim.Frame) {
	for _, blk := range frame.Board.Blocks() {
		frame.Commands.Delete(blk.Id)
	}
	if frame.Board.Len() == 0 {
		panic("deletes must be deferred until the end of the frame")
	}
}

func TestScheduler(t *testing.T) {
	t.Run("execution order", func(t *testing.T) {
		var trace []string
		scheduler := sim.NewScheduler(board.New(), &sim.Context{})
		first := &recordingSystem{name: "first", trace: &trace}
		second := &recordingSystem{name: "second", trace: &trace}
		scheduler.Register(first)
		scheduler.Register(second)

		scheduler.Once(0.5)
		scheduler.Once(0.25)

		assert.Equal(t, []string{"first", "second", "first", "second"}, trace)
		assert.Equal(t, []float64{0.5, 0.25}, second.dts)
	})

	t.Run("context advances per frame", func(t *testing.T) {
		ctx := &sim.Context{}
		scheduler := sim.NewScheduler(board.New(), ctx)

		report := scheduler.Once(0.5)
		assert.Equal(t, uint64(0), report.Tick)
		report = scheduler.Once(0.25)
		assert.Equal(t, uint64(1), report.Tick)

		assert.Equal(t, uint64(2), ctx.Ticks)
		assert.InDelta(t, 0.75, ctx.Elapsed, 1e-9)
		assert.InDelta(t, 0.25, ctx.LastDelta, 1e-9)
	})

	t.Run("commands flush after systems", func(t *testing.T) {
		b := board.New()
		_, err := b.InitializeGrid(2, 2)
		require.NoError(t, err)

		scheduler := sim.NewScheduler(b, &sim.Context{})
		scheduler.Register(&deletingSystem{})

		report := scheduler.Once(0.1)
		assert.Len(t, report.Reaped, 4)
		assert.Equal(t, 0, b.Len())
	})

	t.Run("run single system", func(t *testing.T) {
		var trace []string
		ctx := &sim.Context{}
		scheduler := sim.NewScheduler(board.New(), ctx)
		first := &recordingSystem{name: "first", trace: &trace}
		second := &recordingSystem{name: "second", trace: &trace}
		scheduler.Register(first)
		scheduler.Register(second)

		scheduler.RunSystem(second, 0.1)
		assert.Equal(t, []string{"second"}, trace)
		assert.Equal(t, uint64(0), ctx.Ticks, "single systems leave the clock alone")

		stats := scheduler.GetStats()
		assert.Equal(t, int64(0), stats.Systems[0].ExecutionCount)
		assert.Equal(t, int64(1), stats.Systems[1].ExecutionCount)

		assert.Panics(t, func() {
			scheduler.RunSystem(&recordingSystem{name: "stray", trace: &trace}, 0.1)
		})
	})

	t.Run("context cancellation in run", func(t *testing.T) {
		var trace []string
		scheduler := sim.NewScheduler(board.New(), &sim.Context{})
		scheduler.Register(&recordingSystem{name: "tick", trace: &trace})

		ctx, cancel := context.WithCancel(context.Background())

		frames := 0
		done := make(chan bool)
		go func() {
			scheduler.Run(ctx, 1*time.Millisecond, func(*sim.TickReport) { frames++ })
			done <- true
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("scheduler did not stop after context cancellation")
		}

		assert.Positive(t, frames)
		assert.Len(t, trace, frames)
	})
}

func TestSchedulerStats(t *testing.T) {
	var trace []string
	scheduler := sim.NewScheduler(board.New(), &sim.Context{})
	scheduler.Register(&recordingSystem{name: "a", trace: &trace})
	scheduler.Register(&recordingSystem{name: "b", trace: &trace})

	for range 3 {
		scheduler.Once(0.01)
	}

	stats := scheduler.GetStats()
	assert.Equal(t, 2, stats.SystemCount)
	assert.Equal(t, int64(6), stats.TotalExecutions)

	for _, st := range stats.Systems {
		assert.Equal(t, "recordingSystem", st.Name)
		assert.Equal(t, int64(3), st.ExecutionCount)
		assert.LessOrEqual(t, st.MinDuration, st.MaxDuration)
		assert.LessOrEqual(t, st.AvgDuration, st.MaxDuration)
		assert.GreaterOrEqual(t, st.TotalDuration, st.MaxDuration)
	}
}

func TestCommands(t *testing.T) {
	b := board.New()
	first, err := b.Spawn(0, 0)
	require.NoError(t, err)
	second, err := b.Spawn(1, 0)
	require.NoError(t, err)

	var trace []string
	scheduler := sim.NewScheduler(b, &sim.Context{})
	scheduler.Register(sim.SystemFunc(func(frame *sim.Frame) {
		frame.Commands.Defer(func() {
			trace = append(trace, "deferred")
			assert.Equal(t, 0, frame.Board.Len(), "deferred functions run after deletes")
		})
		frame.Commands.Delete(second)
		frame.Commands.Delete(first)
		frame.Commands.Delete(second)
		assert.Equal(t, 4, frame.Commands.Len())
	}))

	report := scheduler.Once(0)
	assert.Equal(t, []board.BlockId{second, first}, report.Reaped, "duplicate deletes collapse")
	assert.Equal(t, []string{"deferred"}, trace)
}
