package nn

import (
	"fmt"

	"github.com/born-ml/noether/internal/tensor"
)

// FullyConnected is a dense node over flattened examples.
//
// Performs: output = input · weightᵀ + bias
//
// Input shape:  [batch, ...] (flattened to [batch, in])
// Weight shape: [width, in]
// Bias shape:   [width]
// Output shape: [batch, width]
type FullyConnected struct {
	nodeBase

	width int

	weight *Parameter // [width, in]
	bias   *Parameter // [width]
}

func newFullyConnected(net *Network, in Node, width int) *FullyConnected {
	if width <= 0 {
		panic(fmt.Sprintf("fc: invalid width %d", width))
	}
	src := in.Output()
	if src.Kind() != tensor.Float {
		panic(fmt.Sprintf("fc: input %s must be a float tensor", in.Name()))
	}
	if src.Rank() < 2 {
		panic(fmt.Sprintf("fc: input %s must have a batch dimension, got %v", in.Name(), src.Dims()))
	}

	batch := src.Dims()[0]
	inFeatures := src.Dims().Inner().NumElements()
	if inFeatures == 0 {
		panic(fmt.Sprintf("fc: input %s has no features", in.Name()))
	}

	output := tensor.New(tensor.Float, tensor.Shape{batch, width})
	n := &FullyConnected{
		nodeBase: newNodeBase(net, KindFullyConnected, output, in.ID()),
		width:    width,
	}

	weight := Xavier(net.rng, inFeatures, width, tensor.Shape{width, inFeatures})
	n.weight = NewParameter(n.name+".weight", weight)
	n.bias = NewParameter(n.name+".bias", Zeros(tensor.Shape{width}))
	return n
}

// Weight returns the weight parameter.
func (n *FullyConnected) Weight() *Parameter { return n.weight }

// Bias returns the bias parameter.
func (n *FullyConnected) Bias() *Parameter { return n.bias }

// Parameters returns the weight and bias.
func (n *FullyConnected) Parameters() []*Parameter {
	return []*Parameter{n.weight, n.bias}
}

func (n *FullyConnected) forward() {
	n.backend().Linear(n.output, n.input(0).Output(), n.weight.Tensor(), n.bias.Tensor())
}

func (n *FullyConnected) backward() error {
	in := n.input(0)
	n.backend().LinearBackward(
		in.Grad(), n.weight.Grad(), n.bias.Grad(),
		n.grad, in.Output(), n.weight.Tensor(),
	)
	return nil
}
