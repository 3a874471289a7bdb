package nn

import (
	"fmt"

	"github.com/born-ml/noether/internal/backend/cpu"
	"github.com/born-ml/noether/internal/tensor"
)

// PoolOp selects the reduction a pooling node applies.
type PoolOp = cpu.PoolOp

// Pooling reductions.
const (
	PoolMax = cpu.PoolMax
	PoolAvg = cpu.PoolAvg
)

// MaxPool is a 2D pooling node. It has no learnable parameters.
//
// Input shape:  [batch, height, width, channels]
// Output shape: [batch, out_h, out_w, channels]
//
// Where:
//
//	out_h = (height + 2*pad - window) / stride + 1
//	out_w = (width + 2*pad - window) / stride + 1
//
// With PoolMax the backward pass routes each window's gradient to the single
// input cell that won it; with PoolAvg it spreads the gradient evenly.
type MaxPool struct {
	nodeBase

	op      PoolOp
	window  int
	stride  int
	padding int

	winners []int // Flat input offset of each output's max cell
}

func newMaxPool(net *Network, in Node, op PoolOp, window, stride, padding int) *MaxPool {
	if op != PoolMax && op != PoolAvg {
		panic(fmt.Sprintf("pool: unsupported op %d", op))
	}
	if padding >= window && window > 0 {
		panic(fmt.Sprintf("pool: padding %d must be smaller than window %d", padding, window))
	}
	dims := requireImage("pool", in)
	batch, h, w, c := dims[0], dims[1], dims[2], dims[3]

	hOut, err := cpu.OutputSize(h, window, stride, padding)
	if err != nil {
		panic(fmt.Sprintf("pool: height: %v", err))
	}
	wOut, err := cpu.OutputSize(w, window, stride, padding)
	if err != nil {
		panic(fmt.Sprintf("pool: width: %v", err))
	}

	output := tensor.New(tensor.Float, tensor.Shape{batch, hOut, wOut, c})
	n := &MaxPool{
		nodeBase: newNodeBase(net, KindMaxPool, output, in.ID()),
		op:       op,
		window:   window,
		stride:   stride,
		padding:  padding,
	}
	if op == PoolMax {
		n.winners = make([]int, output.NumElements())
	}
	return n
}

// Op returns the pooling reduction.
func (n *MaxPool) Op() PoolOp { return n.op }

func (n *MaxPool) forward() {
	n.backend().Pool2D(n.output, n.input(0).Output(), n.winners, n.op, n.window, n.stride, n.padding)
}

func (n *MaxPool) backward() error {
	n.backend().Pool2DBackward(n.input(0).Grad(), n.grad, n.winners, n.op, n.window, n.stride, n.padding)
	return nil
}
