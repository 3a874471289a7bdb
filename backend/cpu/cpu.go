// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go kernels that run noether networks.
//
// # Overview
//
// Every node of a network delegates its numeric work to a Backend:
//   - Conv2D and Pool2D forward passes split (example, output row) pairs
//     across goroutines
//   - Backward kernels and the dense kernels run on the calling goroutine
//   - Forward kernels overwrite their output; backward kernels accumulate
//     into the gradients they are given
//
// Image tensors use the NHWC layout [batch, height, width, channels].
//
// # Basic Usage
//
// Networks create a default backend on their own. Pass one explicitly to
// control parallelism:
//
//	import (
//	    "github.com/born-ml/noether/backend/cpu"
//	    "github.com/born-ml/noether/nn"
//	)
//
//	func main() {
//	    backend := cpu.NewWithConfig(cpu.ParallelConfig{}) // sequential
//	    net := nn.NewNetwork(nn.WithBackend(backend))
//	}
//
// # Thread Safety
//
// A Backend holds no mutable state and may be shared by several networks.
package cpu

import (
	internalcpu "github.com/born-ml/noether/internal/backend/cpu"
	"github.com/born-ml/noether/internal/parallel"
)

// Backend runs node kernels on the CPU.
type Backend = internalcpu.CPUBackend

// ParallelConfig controls how forward kernels are split across goroutines.
// The zero value runs every kernel sequentially.
type ParallelConfig = parallel.Config

// New creates a CPU backend that uses every available CPU.
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with explicit parallelism settings.
//
// Example:
//
//	cfg := cpu.DefaultParallelConfig()
//	cfg.NumWorkers = 2
//	backend := cpu.NewWithConfig(cfg)
func NewWithConfig(cfg ParallelConfig) *Backend {
	return internalcpu.NewWithConfig(cfg)
}

// DefaultParallelConfig returns the settings used by New.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// OutputSize returns the spatial output extent of a window of size kernel
// sliding over size input positions. Configurations that do not tile the
// padded input exactly are rejected.
func OutputSize(size, kernel, stride, padding int) (int, error) {
	return internalcpu.OutputSize(size, kernel, stride, padding)
}
