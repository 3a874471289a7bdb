package cpu

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/noether/internal/tensor"
)

// ErrLabelOutOfRange is returned when a class label does not index into the
// softmax vector.
var ErrLabelOutOfRange = errors.New("label out of range")

// minProb keeps the cross-entropy finite when a probability underflows.
const minProb = 1e-300

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(output, input *tensor.Tensor) {
	requireFloat("relu", output, input)
	requireSameSize("relu", output, input)

	in := input.AsFloat64()
	out := output.AsFloat64()
	for i, v := range in {
		if v > 0 {
			out[i] = v
		} else {
			out[i] = 0
		}
	}
}

// ReLUBackward passes the upstream gradient where the forward input was
// positive and blocks it elsewhere.
func (cpu *CPUBackend) ReLUBackward(inputGrad, outputGrad, input *tensor.Tensor) {
	requireFloat("relu backward", inputGrad, outputGrad, input)
	requireSameSize("relu backward", inputGrad, outputGrad)
	requireSameSize("relu backward", inputGrad, input)

	in := input.AsFloat64()
	grad := outputGrad.AsFloat64()
	inGrad := inputGrad.AsFloat64()
	for i, v := range in {
		if v > 0 {
			inGrad[i] += grad[i]
		}
	}
}

// Softmax computes a normalized exponential over every example.
//
// The input is viewed as [batch, classes]. Each row is shifted by its maximum
// before exponentiation so large logits cannot overflow.
func (cpu *CPUBackend) Softmax(output, input *tensor.Tensor) {
	requireFloat("softmax", output, input)
	requireSameSize("softmax", output, input)

	batch, classes := rows(input)
	in := input.AsFloat64()
	out := output.AsFloat64()

	for b := 0; b < batch; b++ {
		src := in[b*classes : (b+1)*classes]
		dst := out[b*classes : (b+1)*classes]

		maxVal := floats.Max(src)
		for i, v := range src {
			dst[i] = math.Exp(v - maxVal)
		}
		floats.Scale(1/floats.Sum(dst), dst)
	}
}

// SoftmaxBackward seeds the loss gradient of a softmax + cross-entropy pair.
//
//	inputGrad[b, k] += probs[b, k] - (k == labels[b] ? 1 : 0)
//
// labels is an Index tensor holding one class per example. The summed
// cross-entropy -log(probs[b, label]) over the batch is returned. A label
// outside [0, classes) yields ErrLabelOutOfRange and leaves inputGrad untouched.
func (cpu *CPUBackend) SoftmaxBackward(inputGrad, probs, labels *tensor.Tensor) (float64, error) {
	requireFloat("softmax backward", inputGrad, probs)
	requireSameSize("softmax backward", inputGrad, probs)
	if labels.Kind() != tensor.Index {
		panic(fmt.Sprintf("softmax backward: labels must be index tensor, got %s", labels))
	}

	batch, classes := rows(probs)
	lbl := labels.AsInt64()
	if len(lbl) != batch {
		panic(fmt.Sprintf("softmax backward: %d labels for batch of %d", len(lbl), batch))
	}
	for b, l := range lbl {
		if l < 0 || l >= int64(classes) {
			return 0, fmt.Errorf("%w: example %d has label %d, want [0, %d)", ErrLabelOutOfRange, b, l, classes)
		}
	}

	p := probs.AsFloat64()
	g := inputGrad.AsFloat64()
	loss := 0.0
	for b := 0; b < batch; b++ {
		row := b * classes
		floats.Add(g[row:row+classes], p[row:row+classes])
		label := row + int(lbl[b])
		g[label]--
		loss -= math.Log(math.Max(p[label], minProb))
	}
	return loss, nil
}

func requireSameSize(op string, a, b *tensor.Tensor) {
	if a.NumElements() != b.NumElements() {
		panic(fmt.Sprintf("%s: size mismatch %v vs %v", op, a.Dims(), b.Dims()))
	}
}
