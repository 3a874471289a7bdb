package nn

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/born-ml/noether/internal/backend/cpu"
	"github.com/born-ml/noether/internal/optim"
	"github.com/born-ml/noether/internal/tensor"
)

// Network owns a graph of nodes in construction order and trains it.
//
// Every factory appends one node whose inputs are earlier nodes of the same
// network, so construction order is a topological order. Forward passes walk
// the nodes front to back; backward passes walk them back to front.
type Network struct {
	nodes  []Node
	config Config
	names  map[Kind]int

	backend   *cpu.CPUBackend
	optimizer *optim.SGD
	params    []optim.Param
	rng       *rand.Rand

	cursor   int // Next example of the bound data for Train
	lastLoss float64

	logger   *slog.Logger
	reporter Reporter
}

// Option configures a Network.
type Option func(*networkOptions)

type networkOptions struct {
	config   Config
	logger   *slog.Logger
	reporter Reporter
	backend  *cpu.CPUBackend
}

// WithConfig sets the training configuration.
func WithConfig(cfg Config) Option {
	return func(o *networkOptions) {
		o.config = cfg
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *networkOptions) {
		o.logger = logger
	}
}

// WithReporter sets the observer notified after every training iteration.
func WithReporter(r Reporter) Option {
	return func(o *networkOptions) {
		o.reporter = r
	}
}

// WithBackend sets the kernel backend, for example one with parallelism
// disabled.
func WithBackend(b *cpu.CPUBackend) Option {
	return func(o *networkOptions) {
		o.backend = b
	}
}

// NewNetwork creates an empty network.
//
// Without options the network uses DefaultConfig, slog.Default and no
// progress reporting.
func NewNetwork(opts ...Option) *Network {
	options := &networkOptions{
		config:   DefaultConfig(),
		logger:   slog.Default(),
		reporter: nopReporter{},
		backend:  cpu.New(),
	}
	for _, opt := range opts {
		opt(options)
	}

	//nolint:gosec // Using math/rand for weight initialization (not security-critical)
	rng := rand.New(rand.NewSource(options.config.Seed))

	return &Network{
		config:    options.config,
		names:     make(map[Kind]int),
		backend:   options.backend,
		optimizer: optim.NewSGD(),
		rng:       rng,
		logger:    options.logger,
		reporter:  options.reporter,
	}
}

// Config returns the mutable training configuration.
func (net *Network) Config() *Config {
	return &net.config
}

// Nodes returns the nodes in construction order.
func (net *Network) Nodes() []Node {
	return append([]Node(nil), net.nodes...)
}

// Node returns the node with the given ID.
// Panics if id is out of range.
func (net *Network) Node(id NodeID) Node {
	if id < 0 || int(id) >= len(net.nodes) {
		panic(fmt.Sprintf("network: node id %d out of range [0, %d)", id, len(net.nodes)))
	}
	return net.nodes[id]
}

// Parameters returns every trainable parameter in construction order.
func (net *Network) Parameters() []*Parameter {
	var params []*Parameter
	for _, n := range net.nodes {
		params = append(params, n.Parameters()...)
	}
	return params
}

// LastLoss returns the mean cross-entropy of the most recent training step.
func (net *Network) LastLoss() float64 {
	return net.lastLoss
}

// CreateVariable adds a graph input of the given shape and element kind.
//
// The outer dimension of shape is the minibatch size.
func (net *Network) CreateVariable(shape tensor.Shape, kind tensor.ElemKind) *Variable {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("network: variable shape %v: %v", shape, err))
	}
	if len(shape) == 0 || shape.NumElements() == 0 {
		panic(fmt.Sprintf("network: variable shape %v must have a batch dimension and elements", shape))
	}
	return add(net, newVariable(net, shape, kind))
}

// CreateConvNode adds a convolution producing depth channels with a square
// kernel. Panics if the configuration does not tile the input exactly.
func (net *Network) CreateConvNode(in Node, depth, kernel, stride, padding int) *Conv {
	net.own("conv", in)
	return add(net, newConv(net, in, depth, kernel, stride, padding))
}

// CreateReLUNode adds an element-wise rectifier.
func (net *Network) CreateReLUNode(in Node) *ReLU {
	net.own("relu", in)
	return add(net, newReLU(net, in))
}

// CreateMaxPoolNode adds a pooling node with a square window.
// Panics if the configuration does not tile the input exactly or if
// padding is not smaller than the window.
func (net *Network) CreateMaxPoolNode(in Node, op PoolOp, window, stride, padding int) *MaxPool {
	net.own("pool", in)
	return add(net, newMaxPool(net, in, op, window, stride, padding))
}

// CreateFullyConnectedNode adds a dense node with width outputs per example.
func (net *Network) CreateFullyConnectedNode(in Node, width int) *FullyConnected {
	net.own("fc", in)
	return add(net, newFullyConnected(net, in, width))
}

// CreateSoftMaxNode adds a softmax over in, trained against the labels
// held by expected.
func (net *Network) CreateSoftMaxNode(in, expected Node) *SoftMax {
	net.own("softmax", in, expected)
	return add(net, newSoftMax(net, in, expected))
}

// add appends n to the graph and registers its parameters.
func add[N Node](net *Network, n N) N {
	net.nodes = append(net.nodes, n)
	for _, p := range n.Parameters() {
		net.params = append(net.params, p)
	}
	net.logger.Debug("created node",
		"name", n.Name(),
		"kind", n.Kind(),
		"inputs", n.Inputs(),
		"shape", n.Output().Dims(),
		"parameters", len(n.Parameters()))
	return n
}

// own panics unless every node was created by net.
func (net *Network) own(op string, nodes ...Node) {
	for _, n := range nodes {
		if n == nil {
			panic(fmt.Sprintf("%s: nil input node", op))
		}
		if n.owner() != net {
			panic(fmt.Sprintf("%s: input %s belongs to another network", op, n.Name()))
		}
	}
}

// nextName returns a network-unique name for a new node of kind.
func (net *Network) nextName(kind Kind) string {
	net.names[kind]++
	return fmt.Sprintf("%s%d", kind, net.names[kind])
}
