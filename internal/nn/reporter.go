package nn

// Progress describes one completed training iteration.
type Progress struct {
	Iteration  int     // 1-based iteration within the current Train call
	Iterations int     // Iterations requested by the Train call
	Examples   int     // Examples processed by this iteration
	Loss       float64 // Mean cross-entropy of the iteration's minibatch
}

// Reporter observes training progress.
//
// Report is called synchronously after every parameter update. It must not
// call Train or Infer on the reporting network.
type Reporter interface {
	Report(p Progress)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(p Progress)

// Report calls f(p).
func (f ReporterFunc) Report(p Progress) {
	f(p)
}

type nopReporter struct{}

func (nopReporter) Report(Progress) {}
