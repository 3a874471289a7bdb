// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn builds and trains static feed-forward networks.
//
// # Overview
//
// A Network owns a graph of nodes created through its factories. Each
// factory infers the node's output shape from its inputs, so every node's
// storage is allocated once at construction:
//
//	net := nn.NewNetwork()
//	x := net.CreateVariable(tensor.Shape{8, 32, 32, 3}, tensor.Float)
//	y := net.CreateVariable(tensor.Shape{8, 1}, tensor.Index)
//	var h nn.Node = net.CreateConvNode(x, 16, 5, 1, 2)
//	h = net.CreateMaxPoolNode(net.CreateReLUNode(h), nn.PoolMax, 3, 3, 0)
//	sm := net.CreateSoftMaxNode(net.CreateFullyConnectedNode(h, 10), y)
//
//	err := net.Train(sm, 100, []nn.Node{x, y}, []*tensor.Tensor{images, labels})
//	probs, err := net.Infer(sm, []nn.Node{x}, []*tensor.Tensor{sample})
//
// Training uses SGD with momentum and L2 weight decay, reading the Network's
// Config at every update.
package nn

import (
	"log/slog"
	"math/rand"

	"github.com/born-ml/noether/backend/cpu"
	"github.com/born-ml/noether/internal/nn"
	"github.com/born-ml/noether/tensor"
)

// Network owns a graph of nodes and trains it.
type Network = nn.Network

// Node is a vertex of a Network's graph.
type Node = nn.Node

// NodeID is a node's position in its Network's construction order.
type NodeID = nn.NodeID

// Kind identifies the operator a node implements.
type Kind = nn.Kind

// Node kinds.
const (
	KindVariable       = nn.KindVariable
	KindConv           = nn.KindConv
	KindReLU           = nn.KindReLU
	KindMaxPool        = nn.KindMaxPool
	KindFullyConnected = nn.KindFullyConnected
	KindSoftMax        = nn.KindSoftMax
)

// Node types.
type (
	Variable       = nn.Variable
	Conv           = nn.Conv
	ReLU           = nn.ReLU
	MaxPool        = nn.MaxPool
	FullyConnected = nn.FullyConnected
	SoftMax        = nn.SoftMax
)

// PoolOp selects the reduction of a MaxPool node.
type PoolOp = nn.PoolOp

// Pooling reductions.
const (
	PoolMax = nn.PoolMax
	PoolAvg = nn.PoolAvg
)

// Parameter is a learnable tensor with its gradient.
type Parameter = nn.Parameter

// Config holds the SGD hyperparameters and initialization seed.
type Config = nn.Config

// DefaultConfig returns the default training configuration.
func DefaultConfig() Config {
	return nn.DefaultConfig()
}

// Progress describes one completed training iteration.
type Progress = nn.Progress

// Reporter observes training progress.
type Reporter = nn.Reporter

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc = nn.ReporterFunc

// Option configures a Network.
type Option = nn.Option

// NewNetwork creates an empty network.
func NewNetwork(opts ...Option) *Network {
	return nn.NewNetwork(opts...)
}

// WithConfig sets the training configuration.
func WithConfig(cfg Config) Option {
	return nn.WithConfig(cfg)
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return nn.WithLogger(logger)
}

// WithReporter sets the observer notified after every training iteration.
func WithReporter(r Reporter) Option {
	return nn.WithReporter(r)
}

// WithBackend sets the kernel backend, for example one with parallelism
// disabled.
func WithBackend(b *cpu.Backend) Option {
	return nn.WithBackend(b)
}

// Errors returned by Train, Infer and LoadStateDict.
var (
	ErrBindingMismatch   = nn.ErrBindingMismatch
	ErrNotVariable       = nn.ErrNotVariable
	ErrForeignNode       = nn.ErrForeignNode
	ErrNotLossNode       = nn.ErrNotLossNode
	ErrStateDictMismatch = nn.ErrStateDictMismatch
	ErrLabelOutOfRange   = nn.ErrLabelOutOfRange
)

// Xavier returns a Float tensor of shape filled uniformly in
// [-sqrt(6/(fanIn+fanOut)), +sqrt(6/(fanIn+fanOut))] from rng.
func Xavier(rng *rand.Rand, fanIn, fanOut int, shape tensor.Shape) *tensor.Tensor {
	return nn.Xavier(rng, fanIn, fanOut, shape)
}

// Zeros returns a zero-filled Float tensor of shape.
func Zeros(shape tensor.Shape) *tensor.Tensor {
	return nn.Zeros(shape)
}
