package nn

import (
	"fmt"

	"github.com/born-ml/noether/internal/backend/cpu"
	"github.com/born-ml/noether/internal/tensor"
)

// Conv is a 2D convolution node.
//
// Performs convolution: output = Conv2D(input, weight) + bias
//
// Input shape:  [batch, height, width, in_channels]
// Weight shape: [depth, kernel, kernel, in_channels]
// Bias shape:   [depth]
// Output shape: [batch, out_h, out_w, depth]
//
// Where:
//
//	out_h = (height + 2*pad - kernel) / stride + 1
//	out_w = (width + 2*pad - kernel) / stride + 1
//
// Both divisions must be exact.
type Conv struct {
	nodeBase

	depth   int
	kernel  int
	stride  int
	padding int

	weight *Parameter // [depth, kernel, kernel, in_channels]
	bias   *Parameter // [depth]
}

func newConv(net *Network, in Node, depth, kernel, stride, padding int) *Conv {
	if depth <= 0 {
		panic(fmt.Sprintf("conv: invalid depth %d", depth))
	}
	dims := requireImage("conv", in)
	batch, h, w, c := dims[0], dims[1], dims[2], dims[3]

	hOut, err := cpu.OutputSize(h, kernel, stride, padding)
	if err != nil {
		panic(fmt.Sprintf("conv: height: %v", err))
	}
	wOut, err := cpu.OutputSize(w, kernel, stride, padding)
	if err != nil {
		panic(fmt.Sprintf("conv: width: %v", err))
	}

	output := tensor.New(tensor.Float, tensor.Shape{batch, hOut, wOut, depth})
	n := &Conv{
		nodeBase: newNodeBase(net, KindConv, output, in.ID()),
		depth:    depth,
		kernel:   kernel,
		stride:   stride,
		padding:  padding,
	}

	// fan_in = in_channels * kernel^2, fan_out = depth * kernel^2
	fanIn := c * kernel * kernel
	fanOut := depth * kernel * kernel
	weight := Xavier(net.rng, fanIn, fanOut, tensor.Shape{depth, kernel, kernel, c})

	n.weight = NewParameter(n.name+".weight", weight)
	n.bias = NewParameter(n.name+".bias", Zeros(tensor.Shape{depth}))
	return n
}

// Weight returns the kernel parameter.
func (n *Conv) Weight() *Parameter { return n.weight }

// Bias returns the bias parameter.
func (n *Conv) Bias() *Parameter { return n.bias }

// Parameters returns the weight and bias.
func (n *Conv) Parameters() []*Parameter {
	return []*Parameter{n.weight, n.bias}
}

func (n *Conv) forward() {
	n.backend().Conv2D(n.output, n.input(0).Output(), n.weight.Tensor(), n.bias.Tensor(), n.stride, n.padding)
}

func (n *Conv) backward() error {
	in := n.input(0)
	n.backend().Conv2DBackward(
		in.Grad(), n.weight.Grad(), n.bias.Grad(),
		n.grad, in.Output(), n.weight.Tensor(),
		n.stride, n.padding,
	)
	return nil
}

// requireImage panics unless in is a rank-4 Float node.
func requireImage(op string, in Node) tensor.Shape {
	out := in.Output()
	if out.Kind() != tensor.Float {
		panic(fmt.Sprintf("%s: input %s must be a float tensor", op, in.Name()))
	}
	if out.Rank() != 4 {
		panic(fmt.Sprintf("%s: input %s must be [batch, height, width, channels], got %v", op, in.Name(), out.Dims()))
	}
	return out.Dims()
}
