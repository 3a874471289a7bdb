package nn

import (
	"fmt"

	"github.com/born-ml/noether/internal/tensor"
)

// ReLU applies max(0, x) element-wise.
//
// The output has the input's shape. The backward pass lets the gradient
// through only where the forward input was positive.
type ReLU struct {
	nodeBase
}

func newReLU(net *Network, in Node) *ReLU {
	if in.Output().Kind() != tensor.Float {
		panic(fmt.Sprintf("relu: input %s must be a float tensor", in.Name()))
	}
	output := tensor.New(tensor.Float, in.Output().Dims())
	return &ReLU{
		nodeBase: newNodeBase(net, KindReLU, output, in.ID()),
	}
}

func (n *ReLU) forward() {
	n.backend().ReLU(n.output, n.input(0).Output())
}

func (n *ReLU) backward() error {
	in := n.input(0)
	n.backend().ReLUBackward(in.Grad(), n.grad, in.Output())
	return nil
}
