// Package optim implements the parameter update rule used by the trainer.
//
// This package provides:
//   - Param: the view of a trainable tensor and its gradient accumulator
//   - Config: learning rate, momentum and L2 weight decay
//   - SGD: gradient descent with momentum and L2 decay
//
// Example usage:
//
//	sgd := optim.NewSGD()
//	for step := range steps {
//	    // forward + backward accumulate into each Param's Grad()
//	    sgd.Step(params, cfg)
//	    optim.ZeroGrad(params)
//	}
package optim

import "github.com/born-ml/noether/internal/tensor"

// Param is a trainable tensor with a gradient accumulator of the same shape.
type Param interface {
	// Tensor returns the parameter values, updated in place by Step.
	Tensor() *tensor.Tensor

	// Grad returns the gradient accumulated since the last ZeroGrad.
	Grad() *tensor.Tensor
}

// Config holds the hyperparameters read at every update.
type Config struct {
	LearningRate float64 // Step size
	Momentum     float64 // Velocity retention factor, range [0, 1)
	L2Decay      float64 // Weight-decay coefficient
}

// ZeroGrad clears the gradient accumulators of params.
func ZeroGrad[P Param](params []P) {
	for _, p := range params {
		p.Grad().Zero()
	}
}
