package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/noether/internal/parallel"
	"github.com/born-ml/noether/internal/tensor"
)

// convGeometry holds the dimensions shared by the Conv2D kernels.
type convGeometry struct {
	n, h, w, c      int // Input batch, height, width, channels
	depth, kernel   int // Output channels and square kernel size
	hOut, wOut      int // Output spatial extent
	stride, padding int
}

func newConvGeometry(op string, input, weight, output *tensor.Tensor, stride, padding int) convGeometry {
	requireRank(op, input, 4)
	requireRank(op, weight, 4)
	requireRank(op, output, 4)

	in, wt, out := input.Dims(), weight.Dims(), output.Dims()
	g := convGeometry{
		n: in[0], h: in[1], w: in[2], c: in[3],
		depth: wt[0], kernel: wt[1],
		hOut: out[1], wOut: out[2],
		stride: stride, padding: padding,
	}

	if wt[1] != wt[2] || wt[3] != g.c {
		panic(fmt.Sprintf("%s: weight %v does not match input %v", op, wt, in))
	}
	if out[0] != g.n || out[3] != g.depth {
		panic(fmt.Sprintf("%s: output %v does not match input %v and weight %v", op, out, in, wt))
	}
	return g
}

// Conv2D computes a 2D convolution in NHWC layout.
//
// Input shape:  [batch, height, width, in_channels]
// Weight shape: [depth, kernel, kernel, in_channels]
// Bias shape:   [depth]
// Output shape: [batch, out_h, out_w, depth]
//
// Where:
//
//	out_h = (height + 2*padding - kernel) / stride + 1
//	out_w = (width + 2*padding - kernel) / stride + 1
//
// Positions that fall into the zero padding contribute nothing. Because the
// channel axis is innermost, each (kernel row, kernel column) tap reduces to a
// dot product of two contiguous channel vectors. Output rows are computed in
// parallel; each row is written by exactly one goroutine.
func (cpu *CPUBackend) Conv2D(output, input, weight, bias *tensor.Tensor, stride, padding int) {
	requireFloat("conv2d", output, input, weight, bias)
	g := newConvGeometry("conv2d", input, weight, output, stride, padding)

	inData := input.AsFloat64()
	wData := weight.AsFloat64()
	bData := bias.AsFloat64()
	outData := output.AsFloat64()

	rowSize := g.wOut * g.depth
	parallel.ForBatch(g.n, g.hOut, func(n, oy int) {
		outIdx := (n*g.hOut + oy) * rowSize
		for ox := 0; ox < g.wOut; ox++ {
			yStart := oy*g.stride - g.padding
			xStart := ox*g.stride - g.padding

			for d := 0; d < g.depth; d++ {
				sum := bData[d]
				for ky := 0; ky < g.kernel; ky++ {
					y := yStart + ky
					if y < 0 || y >= g.h {
						continue
					}
					for kx := 0; kx < g.kernel; kx++ {
						x := xStart + kx
						if x < 0 || x >= g.w {
							continue
						}
						inOff := ((n*g.h+y)*g.w + x) * g.c
						wOff := ((d*g.kernel+ky)*g.kernel + kx) * g.c
						sum += floats.Dot(inData[inOff:inOff+g.c], wData[wOff:wOff+g.c])
					}
				}
				outData[outIdx] = sum
				outIdx++
			}
		}
	}, cpu.parallel)
}
