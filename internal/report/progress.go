// Package report renders training progress and classification scores.
package report

import (
	"context"
	"log/slog"

	"github.com/born-ml/noether/internal/nn"
)

// LogReporter logs the mean minibatch loss of every window of iterations.
//
// It implements nn.Reporter.
type LogReporter struct {
	logger *slog.Logger
	every  int

	sum      float64
	count    int
	examples int
	total    int
}

// NewLogReporter returns a reporter that logs at info level every every
// iterations and at the end of each Train call. A nil logger uses
// slog.Default.
func NewLogReporter(logger *slog.Logger, every int) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	if every <= 0 {
		every = 1
	}
	return &LogReporter{logger: logger, every: every}
}

// Report accumulates p and logs when a window closes.
func (r *LogReporter) Report(p nn.Progress) {
	r.sum += p.Loss
	r.count++
	r.examples += p.Examples
	r.total++

	if p.Iteration%r.every != 0 && p.Iteration != p.Iterations {
		return
	}

	r.logger.LogAttrs(context.Background(), slog.LevelInfo, "training",
		slog.Int("iteration", r.total),
		slog.Float64("loss", r.sum/float64(r.count)),
		slog.Int("examples", r.examples))
	r.sum, r.count = 0, 0
}

// Iterations returns the number of iterations reported so far.
func (r *LogReporter) Iterations() int {
	return r.total
}

// Examples returns the number of examples consumed so far.
func (r *LogReporter) Examples() int {
	return r.examples
}
