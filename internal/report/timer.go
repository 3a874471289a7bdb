package report

import (
	"fmt"
	"log/slog"
	"time"
)

// Timer measures the throughput of a block of work over a known number of
// examples.
//
//	t := report.StartTimer(iterations * batch)
//	net.Train(...)
//	slog.Info("round", "throughput", t.Stop())
type Timer struct {
	examples int
	start    time.Time
	now      func() time.Time
}

// StartTimer starts timing work over examples examples.
func StartTimer(examples int) *Timer {
	return startTimer(examples, time.Now)
}

func startTimer(examples int, now func() time.Time) *Timer {
	return &Timer{examples: examples, start: now(), now: now}
}

// Stop returns the throughput since the timer started.
func (t *Timer) Stop() Throughput {
	return Throughput{Examples: t.examples, Elapsed: t.now().Sub(t.start)}
}

// Throughput is a number of examples processed in an elapsed time.
type Throughput struct {
	Examples int
	Elapsed  time.Duration
}

// PerSecond returns examples per second, or 0 if no time elapsed.
func (tp Throughput) PerSecond() float64 {
	if tp.Elapsed <= 0 {
		return 0
	}
	return float64(tp.Examples) / tp.Elapsed.Seconds()
}

// String formats the throughput as "1234.5 examples/sec".
func (tp Throughput) String() string {
	return fmt.Sprintf("%.1f examples/sec", tp.PerSecond())
}

// LogValue implements slog.LogValuer.
func (tp Throughput) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("examples", tp.Examples),
		slog.Duration("elapsed", tp.Elapsed),
		slog.Float64("per_sec", tp.PerSecond()),
	)
}
