// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim exposes the update rule that nn.Network applies after every
// training iteration.
//
// # Overview
//
// SGD keeps one velocity buffer per parameter and applies, per element,
// with grad the gradient accumulated over the minibatch:
//
//	velocity = momentum * velocity - lr * (grad + l2 * weight)
//	weight   = weight + velocity
//
// Networks drive their own optimizer. Use this package directly to update
// parameters outside of Network.Train:
//
//	sgd := optim.NewSGD()
//	cfg := optim.Config{LearningRate: 0.01, Momentum: 0.9, L2Decay: 0.0001}
//	for range steps {
//	    // accumulate into every p.Grad()
//	    sgd.Step(params, cfg)
//	    optim.ZeroGrad(params)
//	}
package optim

import "github.com/born-ml/noether/internal/optim"

// Param is a trainable tensor with a gradient accumulator of the same shape.
// nn.Parameter implements it.
type Param = optim.Param

// Config holds the hyperparameters read at every update.
type Config = optim.Config

// SGD is gradient descent with momentum and L2 weight decay.
type SGD = optim.SGD

// NewSGD creates an SGD optimizer with no velocity state.
func NewSGD() *SGD {
	return optim.NewSGD()
}

// ZeroGrad clears the gradient accumulators of params.
func ZeroGrad[P Param](params []P) {
	optim.ZeroGrad(params)
}
