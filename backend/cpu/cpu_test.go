// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/noether/backend/cpu"
	"github.com/born-ml/noether/nn"
	"github.com/born-ml/noether/tensor"
)

func TestOutputSize(t *testing.T) {
	out, err := cpu.OutputSize(32, 5, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 32, out)

	_, err = cpu.OutputSize(5, 2, 2, 0)
	assert.Error(t, err)
}

// TestBackend_SequentialMatchesDefault runs the same convolution network on a
// sequential and a parallel backend.
func TestBackend_SequentialMatchesDefault(t *testing.T) {
	build := func(b *cpu.Backend) (*nn.Network, nn.Node, *nn.Variable) {
		cfg := nn.DefaultConfig()
		net := nn.NewNetwork(nn.WithConfig(cfg), nn.WithBackend(b))
		x := net.CreateVariable(tensor.Shape{4, 8, 8, 2}, tensor.Float)
		var h nn.Node = net.CreateConvNode(x, 3, 3, 1, 1)
		h = net.CreateMaxPoolNode(net.CreateReLUNode(h), nn.PoolMax, 2, 2, 0)
		return net, h, x
	}

	input := tensor.New(tensor.Float, tensor.Shape{4, 8, 8, 2})
	data := input.AsFloat64()
	for i := range data {
		data[i] = float64(i%13) - 6
	}

	parallelCfg := cpu.DefaultParallelConfig()
	parallelCfg.Enabled = true
	parallelCfg.NumWorkers = 4
	parallelCfg.MinChunkSize = 1

	seqNet, seqOut, seqX := build(cpu.NewWithConfig(cpu.ParallelConfig{}))
	parNet, parOut, parX := build(cpu.NewWithConfig(parallelCfg))

	want, err := seqNet.Infer(seqOut, []nn.Node{seqX}, []*tensor.Tensor{input})
	require.NoError(t, err)
	got, err := parNet.Infer(parOut, []nn.Node{parX}, []*tensor.Tensor{input})
	require.NoError(t, err)

	assert.Equal(t, want.AsFloat64(), got.AsFloat64())
}

func TestNew_Name(t *testing.T) {
	assert.Equal(t, "CPU", cpu.New().Name())
}
