package cpu

import (
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/noether/internal/tensor"
)

// Conv2DBackward accumulates the Conv2D gradients.
//
// For every output position (n, oy, ox, d) with upstream gradient g:
//   - biasGrad[d] += g
//   - weightGrad[d, ky, kx, :] += g * input[n, y, x, :]
//   - inputGrad[n, y, x, :] += g * weight[d, ky, kx, :]
//
// for every in-bounds tap (y, x) of the window. The input gradient is the
// transposed convolution of the output gradient with the kernel.
//
// References:
//   - "A guide to convolution arithmetic for deep learning" (Dumoulin & Visin, 2016)
//
//nolint:gocognit // Convolution backprop is inherently nested
func (cpu *CPUBackend) Conv2DBackward(
	inputGrad, weightGrad, biasGrad *tensor.Tensor,
	outputGrad, input, weight *tensor.Tensor,
	stride, padding int,
) {
	requireFloat("conv2d backward", inputGrad, weightGrad, biasGrad, outputGrad, input, weight)
	g := newConvGeometry("conv2d backward", input, weight, outputGrad, stride, padding)

	inData := input.AsFloat64()
	wData := weight.AsFloat64()
	gradData := outputGrad.AsFloat64()
	inGradData := inputGrad.AsFloat64()
	wGradData := weightGrad.AsFloat64()
	bGradData := biasGrad.AsFloat64()

	gradIdx := 0
	for n := 0; n < g.n; n++ {
		for oy := 0; oy < g.hOut; oy++ {
			for ox := 0; ox < g.wOut; ox++ {
				yStart := oy*g.stride - g.padding
				xStart := ox*g.stride - g.padding

				for d := 0; d < g.depth; d++ {
					grad := gradData[gradIdx]
					gradIdx++
					bGradData[d] += grad
					if grad == 0 {
						continue
					}

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

							floats.AddScaled(wGradData[wOff:wOff+g.c], grad, inData[inOff:inOff+g.c])
							floats.AddScaled(inGradData[inOff:inOff+g.c], grad, wData[wOff:wOff+g.c])
						}
					}
				}
			}
		}
	}
}
