package optim

import (
	"fmt"

	"github.com/born-ml/noether/internal/tensor"
)

// SGD implements gradient descent with momentum and L2 weight decay.
//
// Update rule, per element, with grad the gradient accumulated over the
// whole minibatch:
//
//	velocity = momentum * velocity - lr * (grad + l2 * weight)
//	weight   = weight + velocity
//
// Velocities are created lazily (zero) the first time a parameter is
// updated and persist across steps.
type SGD struct {
	velocities map[*tensor.Tensor]*tensor.Tensor
}

// NewSGD creates an SGD optimizer with no velocity state.
func NewSGD() *SGD {
	return &SGD{
		velocities: make(map[*tensor.Tensor]*tensor.Tensor),
	}
}

// Step applies one update to every parameter using cfg as it is at call time.
// Gradients are not cleared.
func (s *SGD) Step(params []Param, cfg Config) {
	for _, p := range params {
		weight := p.Tensor().AsFloat64()
		grad := p.Grad().AsFloat64()
		velocity := s.velocity(p).AsFloat64()

		for i := range weight {
			g := grad[i] + cfg.L2Decay*weight[i]
			velocity[i] = cfg.Momentum*velocity[i] - cfg.LearningRate*g
			weight[i] += velocity[i]
		}
	}
}

// Velocity returns the velocity buffer of p, or nil before its first update.
func (s *SGD) Velocity(p Param) *tensor.Tensor {
	return s.velocities[p.Tensor()]
}

// Reset drops all velocity state.
func (s *SGD) Reset() {
	clear(s.velocities)
}

// StateDict returns the velocity buffers keyed by the given parameter names.
//
// State keys: "velocity.{name}". Parameters without velocity are skipped.
func (s *SGD) StateDict(names map[string]Param) map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	for name, p := range names {
		if v, ok := s.velocities[p.Tensor()]; ok {
			state["velocity."+name] = v
		}
	}
	return state
}

// LoadStateDict restores velocity buffers written by StateDict.
//
// Returns an error if a velocity shape does not match its parameter, in which
// case no velocity is changed.
func (s *SGD) LoadStateDict(names map[string]Param, state map[string]*tensor.Tensor) error {
	for name, p := range names {
		v, ok := state["velocity."+name]
		if ok && (v == nil || !v.SameLayout(p.Tensor())) {
			return fmt.Errorf("velocity shape mismatch for parameter %q: expected %v, got %v",
				name, p.Tensor().Dims(), v)
		}
	}

	for name, p := range names {
		if v, ok := state["velocity."+name]; ok {
			s.velocities[p.Tensor()] = v.Clone()
		}
	}
	return nil
}

func (s *SGD) velocity(p Param) *tensor.Tensor {
	v, ok := s.velocities[p.Tensor()]
	if !ok {
		v = tensor.New(tensor.Float, p.Tensor().Dims())
		s.velocities[p.Tensor()] = v
	}
	return v
}
