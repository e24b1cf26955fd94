package main

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/plus3/gravgrid/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCells(t *testing.T) {
	cells, err := parseCells([]string{"3,2", " 0 , 4 "})
	require.NoError(t, err)
	assert.Equal(t, []cell{{X: 3, Y: 2}, {X: 0, Y: 4}}, cells)

	for _, bad := range []string{"3", "a,1", "1,b", ""} {
		_, err := parseCells([]string{bad})
		assert.Error(t, err, "input %q", bad)
	}
}

func TestRemovalClock(t *testing.T) {
	clock := newRemovalClock(500 * time.Millisecond)
	assert.Equal(t, 0, clock.due(0.25))
	assert.Equal(t, 1, clock.due(0.5))
	assert.Equal(t, 0, clock.due(0.75))
	assert.Equal(t, 2, clock.due(1.6))

	disabled := newRemovalClock(0)
	assert.Equal(t, 0, disabled.due(100))
}

func TestSimulate(t *testing.T) {
	cfg := config.Default()
	cfg.Board.Rows = 5
	cfg.Board.Cols = 10
	cfg.Loop.Duration = time.Second
	cfg.Loop.RemoveEvery = 0

	report, err := simulate(cfg, []cell{{X: 3, Y: 2}, {X: 30, Y: 30}}, log.New(io.Discard))
	require.NoError(t, err)

	assert.Equal(t, int64(60), report.Ticks)
	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, 2, report.Falling)
	assert.Equal(t, 2, report.Moves)
	assert.Equal(t, 1, report.Reaped)
	assert.Equal(t, 49, report.Remaining)
	assert.Equal(t, []int{5, 5, 5, 4, 5, 5, 5, 5, 5, 5}, report.Heights)
	assert.Len(t, report.Systems, 4)

	var buf bytes.Buffer
	require.NoError(t, report.Generate(&buf))
	out := buf.String()
	assert.Contains(t, out, "**Grid:** 5 rows x 10 cols")
	assert.Contains(t, out, "**Remove Every:** never")
	assert.Contains(t, out, "**Moves:** 2")
	assert.Contains(t, out, "**Column Heights:** [5 5 5 4 5 5 5 5 5 5]")
	assert.Contains(t, out, "ResolutionSystem: 60 runs")
}

func TestSimulatePeriodicRemovals(t *testing.T) {
	cfg := config.Default()
	cfg.Board.Rows = 4
	cfg.Board.Cols = 4
	cfg.Loop.Duration = 2 * time.Second
	cfg.Loop.RemoveEvery = 500 * time.Millisecond

	report, err := simulate(cfg, nil, log.New(io.Discard))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Removed)
	assert.Equal(t, report.Removed, report.Reaped)
	assert.Equal(t, 16-report.Removed, report.Remaining)
}

func TestSimulateInvalidGrid(t *testing.T) {
	cfg := config.Default()
	cfg.Board.Rows = 0

	_, err := simulate(cfg, nil, log.New(io.Discard))
	assert.Error(t, err)
}

func TestSimulateZeroTimestep(t *testing.T) {
	cfg := config.Default()
	cfg.Loop.TickRate = 2_000_000_000
	require.Error(t, cfg.Validate())

	assert.NotPanics(t, func() {
		_, err := simulate(cfg, nil, log.New(io.Discard))
		assert.Error(t, err)
	})
	assert.NotPanics(t, func() {
		_, err := simulateRealtime(context.Background(), cfg, nil, log.New(io.Discard))
		assert.Error(t, err)
	})
}

func TestStatsFinalize(t *testing.T) {
	var empty Stats
	empty.Finalize()
	assert.Zero(t, empty.Avg)

	s := Stats{Samples: []time.Duration{3 * time.Millisecond, time.Millisecond, 5 * time.Millisecond}}
	s.Finalize()
	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 5*time.Millisecond, s.Max)
	assert.Equal(t, 3*time.Millisecond, s.Avg)
}
