package main

import (
	"fmt"
	"io"
	"slices"
	"text/template"
	"time"

	"github.com/plus3/gravgrid/config"
	"github.com/plus3/gravgrid/sim"
)

type Report struct {
	// Configuration
	Rows        int
	Cols        int
	TickRate    int
	Duration    time.Duration
	RemoveEvery time.Duration
	Threshold   float64
	TimerPolicy config.TimerPolicy
	Realtime    bool

	// Results
	Ticks     int64
	Simulated float64
	Removed   int
	Falling   int
	Moves     int
	Blocked   int
	Grounded  int
	Reaped    int
	Remaining int
	Heights   []int
	TotalTime time.Duration
	TickTime  Stats
	Systems   []sim.SystemStats
}

// Stats summarizes the wall time spent per tick.
type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}
	s.Min = slices.Min(s.Samples)
	s.Max = slices.Max(s.Samples)

	var total time.Duration
	for _, sample := range s.Samples {
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

func newReport(cfg config.Config) *Report {
	return &Report{
		Rows:        cfg.Board.Rows,
		Cols:        cfg.Board.Cols,
		TickRate:    cfg.Loop.TickRate,
		Duration:    cfg.Loop.Duration,
		RemoveEvery: cfg.Loop.RemoveEvery,
		Threshold:   cfg.Gravity.SettleThreshold,
		TimerPolicy: cfg.Gravity.TimerPolicy,
	}
}

func (r *Report) add(tick *sim.TickReport, d time.Duration) {
	r.Ticks++
	r.Removed += len(tick.Removed)
	r.Falling += len(tick.Falling)
	r.Moves += len(tick.Moves)
	r.Blocked += len(tick.Blocked)
	r.Grounded += len(tick.Grounded)
	r.Reaped += len(tick.Reaped)
	r.TickTime.Samples = append(r.TickTime.Samples, d)
}

func (r *Report) finish(s *sim.Simulation, total time.Duration) {
	b := s.Board()
	r.Simulated = s.Context().Elapsed
	r.Remaining = b.Live()
	r.Heights = make([]int, b.Cols())
	for x := range r.Heights {
		r.Heights[x] = len(b.OccupancyInColumn(x))
	}
	r.TotalTime = total
	r.TickTime.Finalize()
	r.Systems = s.Stats().Systems
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Gravity Grid Report

## Configuration
- **Grid:** {{.Rows}} rows x {{.Cols}} cols
- **Tick Rate:** {{.TickRate}}/s{{if .Realtime}} (wall clock){{end}}
- **Run Duration:** {{.Duration}}
- **Remove Every:** {{if .RemoveEvery}}{{.RemoveEvery}}{{else}}never{{end}}
- **Settle Threshold:** {{printf "%.3f" .Threshold}}s ({{.TimerPolicy}})

## Results
- **Ticks:** {{.Ticks}}
- **Simulated Time:** {{printf "%.3f" .Simulated}}s
- **Removed:** {{.Removed}}
- **Tagged Falling:** {{.Falling}}
- **Moves:** {{.Moves}}
- **Blocked Steps:** {{.Blocked}}
- **Grounded:** {{.Grounded}}
- **Reaped:** {{.Reaped}}
- **Remaining Blocks:** {{.Remaining}}
- **Column Heights:** {{heights .Heights}}

## Performance
- **Total Time:** {{.TotalTime}}
- **Tick Time:**
  - **Avg:** {{.TickTime.Avg}}
  - **Min:** {{.TickTime.Min}}
  - **Max:** {{.TickTime.Max}}
{{range .Systems}}
- {{.Name}}: {{.ExecutionCount}} runs, avg {{.AvgDuration}}, max {{.MaxDuration}}{{end}}
`

	fm := template.FuncMap{
		"heights": func(hs []int) string {
			if len(hs) == 0 {
				return "-"
			}
			return fmt.Sprint(hs)
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
