package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/noether/internal/tensor"
)

// dense wraps the storage of t as a rows x cols gonum matrix without copying.
func dense(t *tensor.Tensor, r, c int) *mat.Dense {
	return mat.NewDense(r, c, t.AsFloat64())
}

// linearDims returns batch, input width and output width, validating that the
// weight is [out, in] and the output is batch x out.
func linearDims(op string, output, input, weight, bias *tensor.Tensor) (batch, in, out int) {
	requireRank(op, weight, 2)
	batch, in = rows(input)
	out = weight.Dims()[0]

	if weight.Dims()[1] != in {
		panic(fmt.Sprintf("%s: weight %v does not match input width %d", op, weight.Dims(), in))
	}
	if bias.NumElements() != out {
		panic(fmt.Sprintf("%s: bias %v does not match output width %d", op, bias.Dims(), out))
	}
	if ob, ow := rows(output); ob != batch || ow != out {
		panic(fmt.Sprintf("%s: output %v does not match [%d, %d]", op, output.Dims(), batch, out))
	}
	return batch, in, out
}

// Linear computes a fully connected layer over flattened examples.
//
//	output = input · weightᵀ + bias
//
// Input shape:  [batch, ...] (flattened to [batch, in])
// Weight shape: [out, in]
// Bias shape:   [out]
// Output shape: [batch, out]
func (cpu *CPUBackend) Linear(output, input, weight, bias *tensor.Tensor) {
	requireFloat("linear", output, input, weight, bias)
	batch, in, out := linearDims("linear", output, input, weight, bias)

	y := dense(output, batch, out)
	y.Mul(dense(input, batch, in), dense(weight, out, in).T())

	b := bias.AsFloat64()
	for i := 0; i < batch; i++ {
		floats.Add(y.RawRowView(i), b)
	}
}

// LinearBackward accumulates the Linear gradients.
//
//	inputGrad  += outputGrad · weight
//	weightGrad += outputGradᵀ · input
//	biasGrad   += Σ_batch outputGrad
func (cpu *CPUBackend) LinearBackward(
	inputGrad, weightGrad, biasGrad *tensor.Tensor,
	outputGrad, input, weight *tensor.Tensor,
) {
	requireFloat("linear backward", inputGrad, weightGrad, biasGrad, outputGrad, input, weight)
	batch, in, out := linearDims("linear backward", outputGrad, input, weight, biasGrad)

	dy := dense(outputGrad, batch, out)

	var dx mat.Dense
	dx.Mul(dy, dense(weight, out, in))
	dxAcc := dense(inputGrad, batch, in)
	dxAcc.Add(dxAcc, &dx)

	var dw mat.Dense
	dw.Mul(dy.T(), dense(input, batch, in))
	dwAcc := dense(weightGrad, out, in)
	dwAcc.Add(dwAcc, &dw)

	db := biasGrad.AsFloat64()
	for i := 0; i < batch; i++ {
		floats.Add(db, dy.RawRowView(i))
	}
}
