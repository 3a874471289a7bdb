package cpu

import (
	"fmt"

	"github.com/born-ml/noether/internal/tensor"
)

// Pool2DBackward accumulates the pooling input gradient.
//
// PoolMax routes each upstream gradient to the single input position that won
// its window in the forward pass; every other position receives zero.
// PoolAvg spreads each upstream gradient evenly over the in-bounds cells.
//
// Example (2x2 max pool, stride=2):
//
//	Input:  [[1, 3],  Output: [4]  Input Grad: [[0, 0],
//	         [2, 4]]                            [0, grad]]
//
// References:
//   - CS231n: Backprop for pooling layers
func (cpu *CPUBackend) Pool2DBackward(
	inputGrad, outputGrad *tensor.Tensor,
	winners []int,
	op PoolOp,
	window, stride, padding int,
) {
	requireFloat("pool2d backward", inputGrad, outputGrad)
	g := newPoolGeometry("pool2d backward", inputGrad, outputGrad, window, stride, padding)

	inGradData := inputGrad.AsFloat64()
	gradData := outputGrad.AsFloat64()

	switch op {
	case PoolMax:
		if len(winners) != len(gradData) {
			panic(fmt.Sprintf("pool2d backward: winners length %d != output size %d", len(winners), len(gradData)))
		}
		for i, grad := range gradData {
			inGradData[winners[i]] += grad
		}
	case PoolAvg:
		outIdx := 0
		for n := 0; n < g.n; n++ {
			for oy := 0; oy < g.hOut; oy++ {
				for ox := 0; ox < g.wOut; ox++ {
					for ch := 0; ch < g.c; ch++ {
						var cells []int
						g.visit(n, oy, ox, ch, func(off int) { cells = append(cells, off) })
						share := gradData[outIdx] / float64(len(cells))
						for _, off := range cells {
							inGradData[off] += share
						}
						outIdx++
					}
				}
			}
		}
	default:
		panic(fmt.Sprintf("pool2d backward: unsupported op %d", op))
	}
}
