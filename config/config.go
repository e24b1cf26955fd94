// Package config provides YAML-based configuration for the gravity grid simulation
// and its command-line host.
package config

import (
	"errors"
	"fmt"
	"time"
)

// TimerPolicy decides what happens to a falling block's settle timer after it steps.
type TimerPolicy string

const (
	// TimerReset zeroes the timer after every successful step, so each row takes a
	// full settle period.
	TimerReset TimerPolicy = "reset"
	// TimerAccumulate never resets the timer; once past the threshold the block
	// attempts one step every tick.
	TimerAccumulate TimerPolicy = "accumulate"
)

// Config contains all configuration for a simulation run.
type Config struct {
	Board   BoardConfig   `yaml:"board"`
	Gravity GravityConfig `yaml:"gravity"`
	Loop    LoopConfig    `yaml:"loop"`
	Checks  ChecksConfig  `yaml:"checks"`
	Log     LogConfig     `yaml:"log"`
}

// BoardConfig defines the initial grid layout.
type BoardConfig struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

// GravityConfig defines fall pacing.
type GravityConfig struct {
	SettleThreshold float64     `yaml:"settle_threshold"` // seconds before a falling block may step
	RowHeight       float64     `yaml:"row_height"`       // visual offset reported per row
	TimerPolicy     TimerPolicy `yaml:"timer_policy"`
}

// LoopConfig defines how the host drives ticks.
type LoopConfig struct {
	TickRate    int           `yaml:"tick_rate"` // ticks per second
	Duration    time.Duration `yaml:"duration"`
	RemoveEvery time.Duration `yaml:"remove_every"` // 0 disables periodic removals
}

// ChecksConfig toggles runtime invariant checking.
type ChecksConfig struct {
	Invariants bool `yaml:"invariants"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Board: BoardConfig{
			Rows: 10,
			Cols: 10,
		},
		Gravity: GravityConfig{
			SettleThreshold: 0.3,
			RowHeight:       32,
			TimerPolicy:     TimerReset,
		},
		Loop: LoopConfig{
			TickRate:    60,
			Duration:    5 * time.Second,
			RemoveEvery: 500 * time.Millisecond,
		},
		Checks: ChecksConfig{
			Invariants: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// TickInterval returns the fixed timestep implied by the tick rate.
func (c Config) TickInterval() time.Duration {
	if c.Loop.TickRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.Loop.TickRate)
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.Board.Rows <= 0 {
		errs = append(errs, fmt.Errorf("board.rows must be positive, got %d", c.Board.Rows))
	}
	if c.Board.Cols <= 0 {
		errs = append(errs, fmt.Errorf("board.cols must be positive, got %d", c.Board.Cols))
	}
	if c.Gravity.SettleThreshold <= 0 {
		errs = append(errs, fmt.Errorf("gravity.settle_threshold must be positive, got %v", c.Gravity.SettleThreshold))
	}
	if c.Gravity.RowHeight <= 0 {
		errs = append(errs, fmt.Errorf("gravity.row_height must be positive, got %v", c.Gravity.RowHeight))
	}
	switch c.Gravity.TimerPolicy {
	case TimerReset, TimerAccumulate:
	default:
		errs = append(errs, fmt.Errorf("gravity.timer_policy must be %q or %q, got %q", TimerReset, TimerAccumulate, c.Gravity.TimerPolicy))
	}
	if c.Loop.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("loop.tick_rate must be positive, got %d", c.Loop.TickRate))
	} else if c.TickInterval() == 0 {
		// Rates above one tick per nanosecond truncate to a zero timestep.
		errs = append(errs, fmt.Errorf("loop.tick_rate must be at most %d, got %d", int64(time.Second), c.Loop.TickRate))
	}
	if c.Loop.Duration < 0 || c.Loop.RemoveEvery < 0 {
		errs = append(errs, errors.New("loop durations must not be negative"))
	}
	return errors.Join(errs...)
}
