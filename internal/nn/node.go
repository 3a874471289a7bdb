// Package nn implements the node graph and trainer of the noether engine.
//
// This package provides:
//   - Node: one operator of the fixed catalog (Variable, Conv, ReLU, MaxPool,
//     FullyConnected, SoftMax) with its output and gradient tensors
//   - Parameter: a trainable tensor and its gradient accumulator
//   - Network: the graph container with node factories, Train and Infer
//
// A Network is built by chaining factory calls, each of which wires a new node
// to earlier nodes and fixes its output shape:
//
//	net := nn.NewNetwork()
//	x := net.CreateVariable(tensor.Shape{batch, 32, 32, 3}, tensor.Float)
//	y := net.CreateVariable(tensor.Shape{batch, 1}, tensor.Index)
//	var h nn.Node = net.CreateConvNode(x, 16, 5, 1, 2)
//	h = net.CreateReLUNode(h)
//	h = net.CreateFullyConnectedNode(h, 10)
//	loss := net.CreateSoftMaxNode(h, y)
//
//	err := net.Train(loss, 100, []nn.Node{x, y}, []*tensor.Tensor{images, labels})
//
// Nodes reference their inputs by NodeID, so the graph is a DAG in
// construction order. The engine is single-threaded: a Network and its
// tensors must not be used from more than one goroutine at a time.
package nn

import (
	"fmt"

	"github.com/born-ml/noether/internal/backend/cpu"
	"github.com/born-ml/noether/internal/tensor"
)

// Kind identifies the operator a node implements.
type Kind int

// Node kinds.
const (
	KindVariable Kind = iota
	KindConv
	KindReLU
	KindMaxPool
	KindFullyConnected
	KindSoftMax
)

// String returns the kind name, also used as node name prefix.
func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "var"
	case KindConv:
		return "conv"
	case KindReLU:
		return "relu"
	case KindMaxPool:
		return "pool"
	case KindFullyConnected:
		return "fc"
	case KindSoftMax:
		return "softmax"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// NodeID is the position of a node in its network's construction order.
type NodeID int

// Node is a vertex of the graph.
//
// Output and gradient tensors are owned by the node and live as long as the
// network. The gradient has the output's shape and holds dLoss/dOutput during
// a backward pass; it is nil for Index-kind nodes.
type Node interface {
	// ID returns the node's position in construction order.
	ID() NodeID

	// Kind returns the operator kind.
	Kind() Kind

	// Name returns a network-unique name such as "conv2".
	Name() string

	// Inputs returns the IDs of the predecessor nodes.
	Inputs() []NodeID

	// Output returns the node's output tensor.
	Output() *tensor.Tensor

	// Grad returns the gradient with respect to Output, or nil.
	Grad() *tensor.Tensor

	// Parameters returns the trainable parameters, empty for most kinds.
	Parameters() []*Parameter

	// forward recomputes Output from the inputs' outputs.
	forward()

	// backward accumulates gradients into the inputs' Grad and the
	// node's own parameter gradients.
	backward() error

	owner() *Network
}

// nodeBase carries the state shared by every node kind.
type nodeBase struct {
	net    *Network
	id     NodeID
	kind   Kind
	name   string
	inputs []NodeID
	output *tensor.Tensor
	grad   *tensor.Tensor
}

func newNodeBase(net *Network, kind Kind, output *tensor.Tensor, inputs ...NodeID) nodeBase {
	b := nodeBase{
		net:    net,
		id:     NodeID(len(net.nodes)),
		kind:   kind,
		name:   net.nextName(kind),
		inputs: inputs,
		output: output,
	}
	if output.Kind() == tensor.Float {
		b.grad = tensor.New(tensor.Float, output.Dims())
	}
	return b
}

func (b *nodeBase) ID() NodeID { return b.id }
func (b *nodeBase) Kind() Kind { return b.kind }
func (b *nodeBase) Name() string { return b.name }
func (b *nodeBase) Inputs() []NodeID { return append([]NodeID(nil), b.inputs...) }
func (b *nodeBase) Output() *tensor.Tensor { return b.output }
func (b *nodeBase) Grad() *tensor.Tensor { return b.grad }
func (b *nodeBase) Parameters() []*Parameter { return nil }
func (b *nodeBase) owner() *Network { return b.net }
func (b *nodeBase) input(i int) Node { return b.net.nodes[b.inputs[i]] }
func (b *nodeBase) backend() *cpu.CPUBackend { return b.net.backend }
func (b *nodeBase) String() string { return fmt.Sprintf("%s%v", b.name, b.output.Dims()) }
