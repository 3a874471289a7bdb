package nn

import "github.com/born-ml/noether/internal/tensor"

// Variable is a graph input.
//
// Its output is filled by Train and Infer from the bound data tensors; it has
// no forward computation and absorbs the gradient flowing into it.
//
// The declared shape includes the minibatch size as its outer dimension:
// a Variable of shape [16, 32, 32, 3] receives 16 images per step.
type Variable struct {
	nodeBase
}

func newVariable(net *Network, shape tensor.Shape, kind tensor.ElemKind) *Variable {
	return &Variable{
		nodeBase: newNodeBase(net, KindVariable, tensor.New(kind, shape)),
	}
}

// Batch returns the number of examples bound per step.
func (v *Variable) Batch() int {
	return v.output.Dims()[0]
}

func (v *Variable) forward() {}

func (v *Variable) backward() error { return nil }
