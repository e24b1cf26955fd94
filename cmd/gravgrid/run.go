package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/plus3/gravgrid/config"
	"github.com/plus3/gravgrid/sim"
)

var (
	flagRows        int
	flagCols        int
	flagFPS         int
	flagDuration    time.Duration
	flagRemoveEvery time.Duration
	flagRemoveAt    []string
	flagPolicy      string
	flagRealtime    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a headless simulation and print a report",
	Long: `Lay out a grid, remove blocks and let gravity resolve them.

By default ticks run back to back on simulated time at a fixed timestep of
1/fps seconds, so runs are reproducible. With --realtime ticks follow the wall
clock instead.

A remove signal is issued every --remove-every of simulated time; it removes the
lowest, leftmost block that is neither removed nor falling. --remove-at removes
specific cells before the first tick.

Examples:
  gravgrid run --rows 5 --cols 10 --remove-at 3,2 --remove-every 0
  gravgrid run --duration 30s --policy accumulate`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&flagRows, "rows", 0, "Grid rows (overrides config)")
	runCmd.Flags().IntVar(&flagCols, "cols", 0, "Grid columns (overrides config)")
	runCmd.Flags().IntVar(&flagFPS, "fps", 0, "Tick rate in frames per second (overrides config)")
	runCmd.Flags().DurationVar(&flagDuration, "duration", 0, "Simulated run time (overrides config)")
	runCmd.Flags().DurationVar(&flagRemoveEvery, "remove-every", 0, "Interval between remove signals, 0 disables (overrides config)")
	runCmd.Flags().StringSliceVar(&flagRemoveAt, "remove-at", nil, "Cells to remove before the first tick, as x,y")
	runCmd.Flags().StringVar(&flagPolicy, "policy", "", "Settle timer policy: reset or accumulate (overrides config)")
	runCmd.Flags().BoolVar(&flagRealtime, "realtime", false, "Tick on the wall clock instead of simulated time")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("rows") {
		cfg.Board.Rows = flagRows
	}
	if flags.Changed("cols") {
		cfg.Board.Cols = flagCols
	}
	if flags.Changed("fps") {
		cfg.Loop.TickRate = flagFPS
	}
	if flags.Changed("duration") {
		cfg.Loop.Duration = flagDuration
	}
	if flags.Changed("remove-every") {
		cfg.Loop.RemoveEvery = flagRemoveEvery
	}
	if flags.Changed("policy") {
		cfg.Gravity.TimerPolicy = config.TimerPolicy(flagPolicy)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	targets, err := parseCells(flagRemoveAt)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}

	var report *Report
	if flagRealtime {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Loop.Duration)
		defer cancel()
		report, err = simulateRealtime(ctx, cfg, targets, logger)
	} else {
		report, err = simulate(cfg, targets, logger)
	}
	if err != nil {
		return err
	}

	logger.Info("simulation finished", "ticks", report.Ticks, "moves", report.Moves, "remaining", report.Remaining)
	return report.Generate(cmd.OutOrStdout())
}

type cell struct {
	X, Y int
}

// parseCells parses "x,y" pairs.
func parseCells(values []string) ([]cell, error) {
	cells := make([]cell, 0, len(values))
	for _, v := range values {
		xs, ys, ok := strings.Cut(v, ",")
		if !ok {
			return nil, fmt.Errorf("invalid cell %q: want x,y", v)
		}
		x, err := strconv.Atoi(strings.TrimSpace(xs))
		if err != nil {
			return nil, fmt.Errorf("invalid cell %q: %w", v, err)
		}
		y, err := strconv.Atoi(strings.TrimSpace(ys))
		if err != nil {
			return nil, fmt.Errorf("invalid cell %q: %w", v, err)
		}
		cells = append(cells, cell{X: x, Y: y})
	}
	return cells, nil
}

// removalClock issues remove signals at a fixed interval of simulated time.
type removalClock struct {
	every float64
	next  float64
}

func newRemovalClock(every time.Duration) *removalClock {
	return &removalClock{every: every.Seconds(), next: every.Seconds()}
}

// due returns how many signals have come due by elapsed.
func (c *removalClock) due(elapsed float64) int {
	if c.every <= 0 {
		return 0
	}
	n := 0
	for elapsed >= c.next {
		n++
		c.next += c.every
	}
	return n
}

func setup(cfg config.Config, targets []cell, logger *log.Logger) (*sim.Simulation, *Report, error) {
	if cfg.TickInterval() <= 0 {
		return nil, nil, fmt.Errorf("tick rate %d gives no usable timestep", cfg.Loop.TickRate)
	}

	s := sim.New(cfg, sim.WithLogger(logger))
	if _, err := s.InitializeGrid(cfg.Board.Rows, cfg.Board.Cols); err != nil {
		return nil, nil, err
	}

	report := newReport(cfg)
	for _, c := range targets {
		if _, ok := s.RemoveAt(c.X, c.Y); ok {
			report.Removed++
		} else {
			logger.Warn("nothing to remove", "x", c.X, "y", c.Y)
		}
	}
	return s, report, nil
}

// simulate runs ticks back to back on simulated time.
func simulate(cfg config.Config, targets []cell, logger *log.Logger) (*Report, error) {
	s, report, err := setup(cfg, targets, logger)
	if err != nil {
		return nil, err
	}

	dt := cfg.TickInterval().Seconds()
	ticks := int(cfg.Loop.Duration / cfg.TickInterval())
	removals := newRemovalClock(cfg.Loop.RemoveEvery)

	logger.Info("running simulation", "ticks", ticks, "dt", dt)
	start := time.Now()
	for range ticks {
		for range removals.due(s.Context().Elapsed) {
			s.Signal()
		}

		tickStart := time.Now()
		tick := s.Tick(dt)
		report.add(tick, time.Since(tickStart))
	}
	report.finish(s, time.Since(start))
	return report, nil
}

// simulateRealtime ticks on the wall clock until ctx is done.
func simulateRealtime(ctx context.Context, cfg config.Config, targets []cell, logger *log.Logger) (*Report, error) {
	s, report, err := setup(cfg, targets, logger)
	if err != nil {
		return nil, err
	}
	report.Realtime = true

	removals := newRemovalClock(cfg.Loop.RemoveEvery)

	logger.Info("running simulation", "interval", cfg.TickInterval(), "duration", cfg.Loop.Duration)
	start := time.Now()
	lastFrame := time.Now()
	s.Run(ctx, cfg.TickInterval(), func(tick *sim.TickReport) {
		now := time.Now()
		report.add(tick, now.Sub(lastFrame))
		lastFrame = now

		for range removals.due(s.Context().Elapsed) {
			s.Signal()
		}
	})
	report.finish(s, time.Since(start))
	return report, nil
}
