package nn

import (
	"fmt"

	"github.com/born-ml/noether/internal/optim"
	"github.com/born-ml/noether/internal/tensor"
)

// binding pairs a Variable with the data tensor it draws examples from.
type binding struct {
	v    *Variable
	data *tensor.Tensor
}

// Train runs iterations training steps that minimize the cross-entropy of
// the loss node.
//
// vars and data are paired positionally. Each data tensor must have the
// paired Variable's element kind and trailing dimensions; its outer dimension
// is the number of available examples N, shared by every data tensor. Each
// step copies the next minibatch (the Variable's outer dimension, drawn
// sequentially with wraparound) into the Variables, runs the forward pass up
// to loss, the backward pass from loss, and one SGD update with the gradient
// accumulated over the minibatch. The example cursor persists across Train
// calls.
//
// A step that fails (e.g. with ErrLabelOutOfRange) aborts training before the
// parameters are updated and leaves the cursor on the failed minibatch.
func (net *Network) Train(loss Node, iterations int, vars []Node, data []*tensor.Tensor) error {
	if iterations < 0 {
		panic(fmt.Sprintf("train: invalid iteration count %d", iterations))
	}
	sm, ok := loss.(*SoftMax)
	if loss == nil || loss.owner() != net {
		return ErrForeignNode
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotLossNode, loss.Name())
	}

	bindings, err := net.bind(vars, data)
	if err != nil {
		return err
	}
	examples := exampleCount(bindings)
	if examples > 0 {
		net.cursor %= examples
	}

	active := net.ancestors(sm)
	batch := sm.Output().Dims()[0]
	net.logger.Debug("training",
		"loss", sm.Name(),
		"iterations", iterations,
		"batch", batch,
		"examples", examples,
		"cursor", net.cursor)

	for it := 1; it <= iterations; it++ {
		start := net.cursor
		if examples > 0 {
			loadMinibatch(bindings, net.cursor)
			net.cursor = (net.cursor + batch) % examples
		}
		if err := net.step(sm, active); err != nil {
			net.cursor = start
			return fmt.Errorf("iteration %d: %w", it, err)
		}
		net.reporter.Report(Progress{
			Iteration:  it,
			Iterations: iterations,
			Examples:   batch,
			Loss:       net.lastLoss,
		})
	}
	return nil
}

// Infer binds the first minibatch of data and runs the forward pass up to
// out, returning out's output tensor. Every data tensor must hold at least
// one full minibatch.
//
// Parameters are not modified and the training cursor is left in place. The
// returned tensor is owned by the node and overwritten by the next Train or
// Infer call.
func (net *Network) Infer(out Node, vars []Node, data []*tensor.Tensor) (*tensor.Tensor, error) {
	if out == nil || out.owner() != net {
		return nil, ErrForeignNode
	}
	bindings, err := net.bind(vars, data)
	if err != nil {
		return nil, err
	}

	for _, b := range bindings {
		if n := b.data.Dims()[0]; n < b.v.Batch() {
			return nil, fmt.Errorf("%w: %s needs %d examples, got %d",
				ErrBindingMismatch, b.v.Name(), b.v.Batch(), n)
		}
	}

	loadMinibatch(bindings, 0)
	net.forward(net.ancestors(out))
	return out.Output(), nil
}

// step runs one forward/backward/update cycle over the active nodes.
func (net *Network) step(loss *SoftMax, active []bool) error {
	if err := net.backprop(active); err != nil {
		optim.ZeroGrad(net.params)
		return err
	}

	net.optimizer.Step(net.params, net.config.optim())
	optim.ZeroGrad(net.params)
	net.lastLoss = loss.Loss()
	return nil
}

// backprop runs the forward pass and then accumulates gradients from the
// last active node back to the first.
func (net *Network) backprop(active []bool) error {
	for i, n := range net.nodes[:len(active)] {
		if active[i] && n.Grad() != nil {
			n.Grad().Zero()
		}
	}

	net.forward(active)

	for i := len(active) - 1; i >= 0; i-- {
		if !active[i] {
			continue
		}
		if err := net.nodes[i].backward(); err != nil {
			return err
		}
	}
	return nil
}

func (net *Network) forward(active []bool) {
	for i, n := range net.nodes[:len(active)] {
		if active[i] {
			n.forward()
		}
	}
}

// ancestors marks target and every node it transitively depends on.
// The result is indexed by NodeID and ends at target.
func (net *Network) ancestors(target Node) []bool {
	active := make([]bool, int(target.ID())+1)
	active[target.ID()] = true
	for i := len(active) - 1; i >= 0; i-- {
		if !active[i] {
			continue
		}
		for _, in := range net.nodes[i].Inputs() {
			active[in] = true
		}
	}
	return active
}

// bind validates vars and data and pairs them.
func (net *Network) bind(vars []Node, data []*tensor.Tensor) ([]binding, error) {
	if len(vars) != len(data) {
		return nil, fmt.Errorf("%w: %d variables, %d data tensors", ErrBindingMismatch, len(vars), len(data))
	}

	bindings := make([]binding, len(vars))
	examples, batch := -1, -1
	for i, n := range vars {
		if n == nil || n.owner() != net {
			return nil, fmt.Errorf("%w: binding %d", ErrForeignNode, i)
		}
		v, ok := n.(*Variable)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotVariable, n.Name())
		}

		d := data[i]
		if d == nil {
			return nil, fmt.Errorf("%w: %s bound to nil tensor", ErrBindingMismatch, v.Name())
		}
		want := v.Output()
		if d.Kind() != want.Kind() {
			return nil, fmt.Errorf("%w: %s expects %s data, got %s", ErrBindingMismatch, v.Name(), want.Kind(), d.Kind())
		}
		if d.Rank() != want.Rank() || !d.Dims().Inner().Equal(want.Dims().Inner()) {
			return nil, fmt.Errorf("%w: %s expects [N%s], got %v",
				ErrBindingMismatch, v.Name(), trailing(want.Dims()), d.Dims())
		}
		if d.Dims()[0] == 0 {
			return nil, fmt.Errorf("%w: %s bound to empty tensor %v", ErrBindingMismatch, v.Name(), d.Dims())
		}

		if examples >= 0 && d.Dims()[0] != examples {
			return nil, fmt.Errorf("%w: %s has %d examples, previous bindings have %d",
				ErrBindingMismatch, v.Name(), d.Dims()[0], examples)
		}
		if batch >= 0 && v.Batch() != batch {
			return nil, fmt.Errorf("%w: %s has batch %d, previous variables have %d",
				ErrBindingMismatch, v.Name(), v.Batch(), batch)
		}
		examples, batch = d.Dims()[0], v.Batch()
		bindings[i] = binding{v: v, data: d}
	}
	return bindings, nil
}

// loadMinibatch copies batch consecutive examples starting at cursor into
// every bound Variable, wrapping around the end of the data.
func loadMinibatch(bindings []binding, cursor int) {
	for _, b := range bindings {
		dst := b.v.Output()
		n, batch := b.data.Dims()[0], b.v.Batch()
		if cursor+batch <= n {
			dst.CopyConsecutiveSlices(b.data, cursor)
			continue
		}
		for j := 0; j < batch; j++ {
			dst.CopySlice(b.data, (cursor+j)%n, j)
		}
	}
}

func exampleCount(bindings []binding) int {
	if len(bindings) == 0 {
		return 0
	}
	return bindings[0].data.Dims()[0]
}

// trailing formats the non-batch dimensions as ", d1, d2".
func trailing(s tensor.Shape) string {
	out := ""
	for _, d := range s.Inner() {
		out += fmt.Sprintf(", %d", d)
	}
	return out
}
