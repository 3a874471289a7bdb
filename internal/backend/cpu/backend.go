// Package cpu implements the numeric kernels behind the graph nodes.
//
// Every kernel writes into caller-owned tensors: forward kernels overwrite
// their output, backward kernels accumulate (+=) into the gradient tensors
// they are given. Image tensors use the NHWC layout [batch, height, width, channels].
package cpu

import (
	"fmt"

	"github.com/born-ml/noether/internal/parallel"
	"github.com/born-ml/noether/internal/tensor"
)

// CPUBackend runs node kernels on the CPU.
type CPUBackend struct {
	parallel parallel.Config
}

// New creates a new CPU backend that spreads forward kernels over all CPUs.
func New() *CPUBackend {
	return &CPUBackend{parallel: parallel.DefaultConfig()}
}

// NewWithConfig creates a CPU backend with explicit parallelism settings.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{parallel: cfg}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// requireFloat panics unless every tensor holds Float elements.
func requireFloat(op string, ts ...*tensor.Tensor) {
	for _, t := range ts {
		if t.Kind() != tensor.Float {
			panic(fmt.Sprintf("%s: expected float tensor, got %s", op, t))
		}
	}
}

// requireRank panics unless t has the given rank.
func requireRank(op string, t *tensor.Tensor, rank int) {
	if t.Rank() != rank {
		panic(fmt.Sprintf("%s: expected %dD tensor, got %dD %v", op, rank, t.Rank(), t.Dims()))
	}
}

// rows splits a tensor into its outer dimension and the flattened remainder.
func rows(t *tensor.Tensor) (n, width int) {
	dims := t.Dims()
	if len(dims) == 0 {
		return 1, 1
	}
	return dims[0], t.NumElements() / max(dims[0], 1)
}
