package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/noether/internal/parallel"
	"github.com/born-ml/noether/internal/tensor"
)

// PoolOp selects the reduction a pooling window applies.
type PoolOp int

// Supported pooling reductions.
const (
	PoolMax PoolOp = iota
	PoolAvg
)

// String returns the reduction name.
func (op PoolOp) String() string {
	switch op {
	case PoolMax:
		return "max"
	case PoolAvg:
		return "avg"
	default:
		return "unknown"
	}
}

// poolGeometry holds the dimensions shared by the pooling kernels.
type poolGeometry struct {
	n, h, w, c      int
	hOut, wOut      int
	window          int
	stride, padding int
}

func newPoolGeometry(op string, input, output *tensor.Tensor, window, stride, padding int) poolGeometry {
	requireRank(op, input, 4)
	requireRank(op, output, 4)

	in, out := input.Dims(), output.Dims()
	if in[0] != out[0] || in[3] != out[3] {
		panic(fmt.Sprintf("%s: output %v does not match input %v", op, out, in))
	}
	return poolGeometry{
		n: in[0], h: in[1], w: in[2], c: in[3],
		hOut: out[1], wOut: out[2],
		window: window, stride: stride, padding: padding,
	}
}

// visit calls fn with the flat input offset of every in-bounds cell of
// the window that produces output position (n, oy, ox, ch).
func (g poolGeometry) visit(n, oy, ox, ch int, fn func(offset int)) {
	yStart := oy*g.stride - g.padding
	xStart := ox*g.stride - g.padding
	for ky := 0; ky < g.window; ky++ {
		y := yStart + ky
		if y < 0 || y >= g.h {
			continue
		}
		for kx := 0; kx < g.window; kx++ {
			x := xStart + kx
			if x < 0 || x >= g.w {
				continue
			}
			fn(((n*g.h+y)*g.w+x)*g.c + ch)
		}
	}
}

// Pool2D performs 2D pooling in NHWC layout.
//
// Input shape:  [batch, height, width, channels]
// Output shape: [batch, out_h, out_w, channels]
//
// Where:
//
//	out_h = (height + 2*padding - window) / stride + 1
//	out_w = (width + 2*padding - window) / stride + 1
//
// For PoolMax, each output is the largest in-bounds element of its window and
// the flat input offset of that element is recorded in winners (one entry per
// output element) for the backward pass; ties keep the first cell in row-major
// window order. For PoolAvg, each output is the mean of the in-bounds cells
// and winners is left untouched (it may be nil).
//
// Example (2x2 max pool, stride=2):
//
//	Input: [[1,3],    Output: [[4]]
//	        [2,4]]
func (cpu *CPUBackend) Pool2D(output, input *tensor.Tensor, winners []int, op PoolOp, window, stride, padding int) {
	requireFloat("pool2d", output, input)
	g := newPoolGeometry("pool2d", input, output, window, stride, padding)

	inData := input.AsFloat64()
	outData := output.AsFloat64()

	if op == PoolMax && len(winners) != len(outData) {
		panic(fmt.Sprintf("pool2d: winners length %d != output size %d", len(winners), len(outData)))
	}

	if op != PoolMax && op != PoolAvg {
		panic(fmt.Sprintf("pool2d: unsupported op %d", op))
	}

	rowSize := g.wOut * g.c
	parallel.ForBatch(g.n, g.hOut, func(n, oy int) {
		outIdx := (n*g.hOut + oy) * rowSize
		for ox := 0; ox < g.wOut; ox++ {
			for ch := 0; ch < g.c; ch++ {
				if op == PoolMax {
					best, winner := math.Inf(-1), -1
					g.visit(n, oy, ox, ch, func(off int) {
						if winner < 0 || inData[off] > best {
							best, winner = inData[off], off
						}
					})
					outData[outIdx] = best
					winners[outIdx] = winner
				} else {
					sum, count := 0.0, 0
					g.visit(n, oy, ox, ch, func(off int) {
						sum += inData[off]
						count++
					})
					outData[outIdx] = sum / float64(count)
				}
				outIdx++
			}
		}
	}, cpu.parallel)
}
