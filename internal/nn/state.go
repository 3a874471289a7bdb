package nn

import (
	"fmt"

	"github.com/born-ml/noether/internal/optim"
	"github.com/born-ml/noether/internal/tensor"
)

// StateDict returns a copy of every parameter keyed by its qualified name
// ("conv1.weight", "fc1.bias", ...).
func (net *Network) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	for _, p := range net.Parameters() {
		state[p.Name()] = p.Tensor().Clone()
	}
	return state
}

// LoadStateDict copies parameter values from state into the network.
//
// Every parameter must be present with a matching shape and no unknown keys
// may appear; otherwise ErrStateDictMismatch is returned and the network is
// left unchanged.
func (net *Network) LoadStateDict(state map[string]*tensor.Tensor) error {
	params := net.Parameters()
	if len(state) != len(params) {
		return fmt.Errorf("%w: %d tensors for %d parameters", ErrStateDictMismatch, len(state), len(params))
	}

	for _, p := range params {
		t, ok := state[p.Name()]
		if !ok || t == nil {
			return fmt.Errorf("%w: missing %q", ErrStateDictMismatch, p.Name())
		}
		if !t.SameLayout(p.Tensor()) {
			return fmt.Errorf("%w: %q has shape %v, want %v",
				ErrStateDictMismatch, p.Name(), t.Dims(), p.Tensor().Dims())
		}
	}

	for _, p := range params {
		p.Tensor().CopyFrom(state[p.Name()])
	}
	net.logger.Debug("loaded state dict", "parameters", len(params))
	return nil
}

// OptimizerStateDict returns a copy of the SGD velocity buffers keyed by
// "velocity.{parameter name}". Parameters that were never updated are omitted.
func (net *Network) OptimizerStateDict() map[string]*tensor.Tensor {
	state := net.optimizer.StateDict(net.paramsByName())
	for k, v := range state {
		state[k] = v.Clone()
	}
	return state
}

// LoadOptimizerStateDict restores velocity buffers written by
// OptimizerStateDict. Keys for unknown parameters are ignored; a shape
// mismatch returns ErrStateDictMismatch and leaves the optimizer unchanged.
func (net *Network) LoadOptimizerStateDict(state map[string]*tensor.Tensor) error {
	if err := net.optimizer.LoadStateDict(net.paramsByName(), state); err != nil {
		return fmt.Errorf("%w: %w", ErrStateDictMismatch, err)
	}
	return nil
}

func (net *Network) paramsByName() map[string]optim.Param {
	names := make(map[string]optim.Param, len(net.params))
	for _, p := range net.Parameters() {
		names[p.Name()] = p
	}
	return names
}
