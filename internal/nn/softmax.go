package nn

import (
	"fmt"

	"github.com/born-ml/noether/internal/tensor"
)

// SoftMax turns each example's scores into a probability vector and, during
// training, seeds the backward pass with the cross-entropy gradient against
// the labels held by its expected node.
//
// Input shape:    [batch, classes]
// Expected shape: [batch, 1] Index labels in [0, classes)
// Output shape:   [batch, classes]
//
// Backward writes softmax - onehot(label) into the input's gradient.
type SoftMax struct {
	nodeBase

	loss float64 // Summed cross-entropy of the last backward pass
}

func newSoftMax(net *Network, in, expected Node) *SoftMax {
	src := in.Output()
	if src.Kind() != tensor.Float {
		panic(fmt.Sprintf("softmax: input %s must be a float tensor", in.Name()))
	}
	if src.Rank() < 2 {
		panic(fmt.Sprintf("softmax: input %s must be [batch, classes], got %v", in.Name(), src.Dims()))
	}

	labels := expected.Output()
	if labels.Kind() != tensor.Index {
		panic(fmt.Sprintf("softmax: expected %s must be an index tensor", expected.Name()))
	}
	batch := src.Dims()[0]
	if labels.Rank() == 0 || labels.Dims()[0] != batch || labels.NumElements() != batch {
		panic(fmt.Sprintf("softmax: expected %s %v must hold one label per example of batch %d",
			expected.Name(), labels.Dims(), batch))
	}

	output := tensor.New(tensor.Float, src.Dims())
	return &SoftMax{
		nodeBase: newNodeBase(net, KindSoftMax, output, in.ID(), expected.ID()),
	}
}

// Loss returns the mean cross-entropy of the last training step.
func (n *SoftMax) Loss() float64 {
	return n.loss / float64(n.output.Dims()[0])
}

func (n *SoftMax) forward() {
	n.backend().Softmax(n.output, n.input(0).Output())
}

func (n *SoftMax) backward() error {
	loss, err := n.backend().SoftmaxBackward(n.input(0).Grad(), n.output, n.input(1).Output())
	if err != nil {
		return fmt.Errorf("%s: %w", n.name, err)
	}
	n.loss = loss
	return nil
}
