package nn

import (
	"github.com/born-ml/noether/internal/tensor"
)

// Parameter represents a trainable parameter of a node.
//
// Parameters are Float tensors updated in place by the optimizer. The gradient
// accumulator has the same shape and is summed over every example of a
// minibatch before the update.
//
// Example:
//
//	for _, p := range net.Parameters() {
//	    fmt.Println(p.Name(), p.Tensor().Dims())
//	}
type Parameter struct {
	name   string         // Qualified name (e.g., "conv1.weight")
	tensor *tensor.Tensor // Parameter values
	grad   *tensor.Tensor // Gradient accumulator, same shape as tensor
}

// NewParameter creates a trainable parameter with a zeroed gradient.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{
		name:   name,
		tensor: t,
		grad:   tensor.New(tensor.Float, t.Dims()),
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Grad returns the gradient accumulator.
func (p *Parameter) Grad() *tensor.Tensor {
	return p.grad
}

// ZeroGrad clears the gradient accumulator.
func (p *Parameter) ZeroGrad() {
	p.grad.Zero()
}
