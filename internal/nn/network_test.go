package nn_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/noether/internal/nn"
	"github.com/born-ml/noether/internal/tensor"
)

// classifier is a small fc + softmax network used across tests.
type classifier struct {
	net  *nn.Network
	x, y *nn.Variable
	fc   *nn.FullyConnected
	loss *nn.SoftMax
}

func newClassifier(cfg nn.Config, batch, features, classes int, opts ...nn.Option) *classifier {
	net := nn.NewNetwork(append([]nn.Option{nn.WithConfig(cfg)}, opts...)...)
	c := &classifier{net: net}
	c.x = net.CreateVariable(tensor.Shape{batch, features}, tensor.Float)
	c.y = net.CreateVariable(tensor.Shape{batch, 1}, tensor.Index)
	c.fc = net.CreateFullyConnectedNode(c.x, classes)
	c.loss = net.CreateSoftMaxNode(c.fc, c.y)
	return c
}

func (c *classifier) vars() []nn.Node {
	return []nn.Node{c.x, c.y}
}

func mustFloats(t *testing.T, shape tensor.Shape, data ...float64) *tensor.Tensor {
	t.Helper()
	out, err := tensor.FromFloats(shape, data)
	require.NoError(t, err)
	return out
}

func mustIndices(t *testing.T, shape tensor.Shape, data ...int64) *tensor.Tensor {
	t.Helper()
	out, err := tensor.FromIndices(shape, data)
	require.NoError(t, err)
	return out
}

// TestConv_UnitKernelInference builds a single 1x1 convolution with weight 2
// and bias 0.5 and feeds it ones.
func TestConv_UnitKernelInference(t *testing.T) {
	net := nn.NewNetwork()
	x := net.CreateVariable(tensor.Shape{1, 2, 2, 1}, tensor.Float)
	conv := net.CreateConvNode(x, 1, 1, 1, 0)
	conv.Weight().Tensor().FloatHandle().Fill(2)
	conv.Bias().Tensor().FloatHandle().Fill(0.5)

	input := tensor.New(tensor.Float, tensor.Shape{1, 2, 2, 1})
	input.FloatHandle().Fill(1)

	out, err := net.Infer(conv, []nn.Node{x}, []*tensor.Tensor{input})
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{1, 2, 2, 1}, out.Shape())
	assert.Equal(t, []float64{2.5, 2.5, 2.5, 2.5}, out.AsFloat64())
}

// TestTrain_SingleExampleConverges trains fc + softmax on one example until
// the correct class dominates.
func TestTrain_SingleExampleConverges(t *testing.T) {
	c := newClassifier(nn.Config{LearningRate: 0.1, Momentum: 0.9, Seed: 7}, 1, 4, 3)
	images := mustFloats(t, tensor.Shape{1, 4}, 0.5, -1, 0.25, 1)
	labels := mustIndices(t, tensor.Shape{1, 1}, 2)

	require.NoError(t, c.net.Train(c.loss, 200, c.vars(), []*tensor.Tensor{images, labels}))

	probs, err := c.net.Infer(c.loss, []nn.Node{c.x}, []*tensor.Tensor{images})
	require.NoError(t, err)
	assert.Greater(t, probs.FloatHandle().At(0, 2), 0.9)
	assert.Equal(t, 2, probs.FloatHandle().MaxArg())
	assert.Less(t, c.net.LastLoss(), 0.2)
}

func TestTrain_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	images := tensor.New(tensor.Float, tensor.Shape{5, 6})
	images.FloatHandle().RandomizeUniform(rng, 1)
	labels := mustIndices(t, tensor.Shape{5, 1}, 0, 1, 2, 1, 0)

	run := func() map[string]*tensor.Tensor {
		c := newClassifier(nn.DefaultConfig(), 2, 6, 3)
		require.NoError(t, c.net.Train(c.loss, 7, c.vars(), []*tensor.Tensor{images, labels}))
		return c.net.StateDict()
	}

	first, second := run(), run()
	require.Len(t, first, 2)
	for name, w := range first {
		require.Contains(t, second, name)
		assert.Equal(t, w.AsFloat64(), second[name].AsFloat64(), name)
	}
}

// TestTrain_CursorWrapsAround checks that minibatches are drawn sequentially
// and continue across Train calls.
func TestTrain_CursorWrapsAround(t *testing.T) {
	c := newClassifier(nn.DefaultConfig(), 2, 1, 2)
	images := mustFloats(t, tensor.Shape{3, 1}, 10, 20, 30)
	labels := mustIndices(t, tensor.Shape{3, 1}, 0, 1, 0)
	data := []*tensor.Tensor{images, labels}

	require.NoError(t, c.net.Train(c.loss, 2, c.vars(), data))
	assert.Equal(t, []float64{30, 10}, c.x.Output().AsFloat64())
	assert.Equal(t, []int64{0, 0}, c.y.Output().AsInt64())

	require.NoError(t, c.net.Train(c.loss, 1, c.vars(), data))
	assert.Equal(t, []float64{20, 30}, c.x.Output().AsFloat64())
	assert.Equal(t, []int64{1, 0}, c.y.Output().AsInt64())
}

func TestTrain_ReportsProgress(t *testing.T) {
	var seen []nn.Progress
	reporter := nn.ReporterFunc(func(p nn.Progress) { seen = append(seen, p) })

	c := newClassifier(nn.DefaultConfig(), 2, 2, 2, nn.WithReporter(reporter))
	images := mustFloats(t, tensor.Shape{2, 2}, 1, 0, 0, 1)
	labels := mustIndices(t, tensor.Shape{2, 1}, 0, 1)

	require.NoError(t, c.net.Train(c.loss, 3, c.vars(), []*tensor.Tensor{images, labels}))

	require.Len(t, seen, 3)
	for i, p := range seen {
		assert.Equal(t, i+1, p.Iteration)
		assert.Equal(t, 3, p.Iterations)
		assert.Equal(t, 2, p.Examples)
		assert.Positive(t, p.Loss)
	}
	assert.Equal(t, seen[2].Loss, c.net.LastLoss())
}

// TestTrain_LabelOutOfRange checks that a bad label aborts the step and
// leaves the parameters untouched.
func TestTrain_LabelOutOfRange(t *testing.T) {
	c := newClassifier(nn.DefaultConfig(), 1, 2, 3)
	before := c.net.StateDict()

	for _, label := range []int64{3, -1} {
		images := mustFloats(t, tensor.Shape{1, 2}, 1, 1)
		labels := mustIndices(t, tensor.Shape{1, 1}, label)

		err := c.net.Train(c.loss, 1, c.vars(), []*tensor.Tensor{images, labels})
		require.Error(t, err)
		assert.True(t, errors.Is(err, nn.ErrLabelOutOfRange), "label %d: %v", label, err)
	}

	after := c.net.StateDict()
	for name, w := range before {
		assert.Equal(t, w.AsFloat64(), after[name].AsFloat64(), name)
	}
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0}, c.fc.Weight().Grad().AsFloat64())
}

// TestTrain_FailedStepKeepsCursor checks that a retry after fixing the data
// starts from the minibatch that failed.
func TestTrain_FailedStepKeepsCursor(t *testing.T) {
	c := newClassifier(nn.DefaultConfig(), 1, 1, 2)
	images := mustFloats(t, tensor.Shape{3, 1}, 10, 20, 30)
	labels := mustIndices(t, tensor.Shape{3, 1}, 0, 5, 1)
	data := []*tensor.Tensor{images, labels}

	require.NoError(t, c.net.Train(c.loss, 1, c.vars(), data))
	require.ErrorIs(t, c.net.Train(c.loss, 1, c.vars(), data), nn.ErrLabelOutOfRange)

	labels.AsInt64()[1] = 1
	require.NoError(t, c.net.Train(c.loss, 1, c.vars(), data))
	assert.Equal(t, []float64{20}, c.x.Output().AsFloat64())
	assert.Equal(t, []int64{1}, c.y.Output().AsInt64())
}

func TestTrain_BindingErrors(t *testing.T) {
	c := newClassifier(nn.DefaultConfig(), 2, 3, 2)
	other := newClassifier(nn.DefaultConfig(), 2, 3, 2)

	images := tensor.New(tensor.Float, tensor.Shape{4, 3})
	labels := tensor.New(tensor.Index, tensor.Shape{4, 1})

	tests := []struct {
		name string
		vars []nn.Node
		data []*tensor.Tensor
		want error
	}{
		{"length mismatch", c.vars(), []*tensor.Tensor{images}, nn.ErrBindingMismatch},
		{"not a variable", []nn.Node{c.fc}, []*tensor.Tensor{images}, nn.ErrNotVariable},
		{"foreign variable", []nn.Node{other.x}, []*tensor.Tensor{images}, nn.ErrForeignNode},
		{"nil variable", []nn.Node{nil}, []*tensor.Tensor{images}, nn.ErrForeignNode},
		{"nil data", []nn.Node{c.x}, []*tensor.Tensor{nil}, nn.ErrBindingMismatch},
		{"kind mismatch", []nn.Node{c.x}, []*tensor.Tensor{labels}, nn.ErrBindingMismatch},
		{"trailing dims", []nn.Node{c.x}, []*tensor.Tensor{tensor.New(tensor.Float, tensor.Shape{4, 2})}, nn.ErrBindingMismatch},
		{"rank", []nn.Node{c.x}, []*tensor.Tensor{tensor.New(tensor.Float, tensor.Shape{12})}, nn.ErrBindingMismatch},
		{"empty", []nn.Node{c.x}, []*tensor.Tensor{tensor.New(tensor.Float, tensor.Shape{0, 3})}, nn.ErrBindingMismatch},
		{
			"example count",
			c.vars(),
			[]*tensor.Tensor{images, tensor.New(tensor.Index, tensor.Shape{5, 1})},
			nn.ErrBindingMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.net.Train(c.loss, 1, tt.vars, tt.data)
			assert.ErrorIs(t, err, tt.want)

			_, err = c.net.Infer(c.loss, tt.vars, tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTrain_LossNodeErrors(t *testing.T) {
	c := newClassifier(nn.DefaultConfig(), 1, 2, 2)
	other := newClassifier(nn.DefaultConfig(), 1, 2, 2)

	assert.ErrorIs(t, c.net.Train(c.fc, 1, nil, nil), nn.ErrNotLossNode)
	assert.ErrorIs(t, c.net.Train(other.loss, 1, nil, nil), nn.ErrForeignNode)
	assert.ErrorIs(t, c.net.Train(nil, 1, nil, nil), nn.ErrForeignNode)
	assert.Panics(t, func() { _ = c.net.Train(c.loss, -1, nil, nil) })
}

func TestInfer_DoesNotUpdateParameters(t *testing.T) {
	c := newClassifier(nn.DefaultConfig(), 1, 2, 2)
	before := c.fc.Weight().Tensor().Clone()

	images := mustFloats(t, tensor.Shape{3, 2}, 1, 2, 3, 4, 5, 6)
	out, err := c.net.Infer(c.fc, []nn.Node{c.x}, []*tensor.Tensor{images})
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{1, 2}, out.Shape())
	assert.Equal(t, []float64{1, 2}, c.x.Output().AsFloat64(), "infer binds the first examples")
	assert.Equal(t, before.AsFloat64(), c.fc.Weight().Tensor().AsFloat64())
}

func TestInfer_RequiresFullMinibatch(t *testing.T) {
	c := newClassifier(nn.DefaultConfig(), 2, 2, 2)

	images := mustFloats(t, tensor.Shape{1, 2}, 1, 2)
	_, err := c.net.Infer(c.fc, []nn.Node{c.x}, []*tensor.Tensor{images})
	assert.ErrorIs(t, err, nn.ErrBindingMismatch)
}

func TestNetwork_ShapeInference(t *testing.T) {
	net := nn.NewNetwork()
	x := net.CreateVariable(tensor.Shape{2, 32, 32, 3}, tensor.Float)
	y := net.CreateVariable(tensor.Shape{2, 1}, tensor.Index)

	conv := net.CreateConvNode(x, 16, 5, 1, 2)
	relu := net.CreateReLUNode(conv)
	pool := net.CreateMaxPoolNode(relu, nn.PoolMax, 2, 2, 0)
	conv2 := net.CreateConvNode(pool, 20, 5, 1, 2)
	fc := net.CreateFullyConnectedNode(conv2, 10)
	loss := net.CreateSoftMaxNode(fc, y)

	assert.Equal(t, tensor.Shape{2, 32, 32, 16}, conv.Output().Shape())
	assert.Equal(t, tensor.Shape{2, 32, 32, 16}, relu.Output().Shape())
	assert.Equal(t, tensor.Shape{2, 16, 16, 16}, pool.Output().Shape())
	assert.Equal(t, tensor.Shape{2, 16, 16, 20}, conv2.Output().Shape())
	assert.Equal(t, tensor.Shape{2, 10}, fc.Output().Shape())
	assert.Equal(t, tensor.Shape{2, 10}, loss.Output().Shape())

	assert.Equal(t, tensor.Shape{16, 5, 5, 3}, conv.Weight().Tensor().Shape())
	assert.Equal(t, tensor.Shape{10, 16 * 16 * 20}, fc.Weight().Tensor().Shape())
	assert.Equal(t, []nn.NodeID{fc.ID(), y.ID()}, loss.Inputs())
	assert.Nil(t, y.Grad())
	assert.Len(t, net.Nodes(), 8)
	assert.Len(t, net.Parameters(), 6)
}

func TestNetwork_NodeNames(t *testing.T) {
	net := nn.NewNetwork()
	x := net.CreateVariable(tensor.Shape{1, 5, 5, 1}, tensor.Float)

	assert.Panics(t, func() { net.CreateConvNode(x, 1, 2, 2, 0) })

	a := net.CreateConvNode(x, 1, 1, 1, 0)
	r := net.CreateReLUNode(a)
	b := net.CreateConvNode(r, 1, 1, 1, 0)

	assert.Equal(t, "var1", x.Name())
	assert.Equal(t, "conv1", a.Name(), "a failed construction must not consume a name")
	assert.Equal(t, "relu1", r.Name())
	assert.Equal(t, "conv2", b.Name())
	assert.Equal(t, "conv2.weight", b.Weight().Name())
	assert.Equal(t, nn.KindConv, b.Kind())
	assert.Same(t, b, net.Node(b.ID()))
}

func TestNetwork_ConstructionPanics(t *testing.T) {
	net := nn.NewNetwork()
	image := net.CreateVariable(tensor.Shape{1, 4, 4, 1}, tensor.Float)
	flat := net.CreateVariable(tensor.Shape{1, 4}, tensor.Float)
	labels := net.CreateVariable(tensor.Shape{1, 1}, tensor.Index)
	wide := net.CreateVariable(tensor.Shape{2, 1}, tensor.Index)
	foreign := nn.NewNetwork().CreateVariable(tensor.Shape{1, 4}, tensor.Float)

	tests := map[string]func(){
		"conv not divisible":     func() { net.CreateConvNode(image, 1, 3, 2, 0) },
		"conv kernel too large":  func() { net.CreateConvNode(image, 1, 5, 1, 0) },
		"conv zero depth":        func() { net.CreateConvNode(image, 0, 1, 1, 0) },
		"conv negative padding":  func() { net.CreateConvNode(image, 1, 1, 1, -1) },
		"conv on flat input":     func() { net.CreateConvNode(flat, 1, 1, 1, 0) },
		"pool padding >= window": func() { net.CreateMaxPoolNode(image, nn.PoolMax, 2, 2, 2) },
		"pool zero stride":       func() { net.CreateMaxPoolNode(image, nn.PoolMax, 2, 0, 0) },
		"fc zero width":          func() { net.CreateFullyConnectedNode(flat, 0) },
		"fc on index input":      func() { net.CreateFullyConnectedNode(labels, 2) },
		"relu on index input":    func() { net.CreateReLUNode(labels) },
		"softmax float labels":   func() { net.CreateSoftMaxNode(flat, flat) },
		"softmax batch mismatch": func() { net.CreateSoftMaxNode(flat, wide) },
		"foreign input":          func() { net.CreateReLUNode(foreign) },
		"nil input":              func() { net.CreateReLUNode(nil) },
		"variable without batch": func() { net.CreateVariable(tensor.Shape{}, tensor.Float) },
		"variable negative dim":  func() { net.CreateVariable(tensor.Shape{1, -2}, tensor.Float) },
		"node id out of range":   func() { net.Node(99) },
	}

	for name, fn := range tests {
		assert.Panics(t, fn, name)
	}
}

func TestStateDict_RoundTrip(t *testing.T) {
	src := newClassifier(nn.Config{Seed: 1}, 1, 3, 2)
	dst := newClassifier(nn.Config{Seed: 2}, 1, 3, 2)
	require.NotEqual(t, src.fc.Weight().Tensor().AsFloat64(), dst.fc.Weight().Tensor().AsFloat64())

	state := src.net.StateDict()
	require.Contains(t, state, "fc1.weight")
	require.Contains(t, state, "fc1.bias")

	require.NoError(t, dst.net.LoadStateDict(state))
	assert.Equal(t, src.fc.Weight().Tensor().AsFloat64(), dst.fc.Weight().Tensor().AsFloat64())

	// The dict holds copies.
	state["fc1.bias"].FloatHandle().Fill(9)
	assert.NotEqual(t, 9.0, src.fc.Bias().Tensor().AsFloat64()[0])
}

func TestStateDict_Mismatch(t *testing.T) {
	c := newClassifier(nn.DefaultConfig(), 1, 3, 2)
	weight := c.fc.Weight().Tensor().Clone()

	tests := map[string]map[string]*tensor.Tensor{
		"missing": {"fc1.weight": tensor.New(tensor.Float, tensor.Shape{2, 3})},
		"unknown": {
			"fc1.weight": tensor.New(tensor.Float, tensor.Shape{2, 3}),
			"fc1.bias":   tensor.New(tensor.Float, tensor.Shape{2}),
			"fc2.bias":   tensor.New(tensor.Float, tensor.Shape{2}),
		},
		"renamed": {
			"fc1.weight": tensor.New(tensor.Float, tensor.Shape{2, 3}),
			"fc9.bias":   tensor.New(tensor.Float, tensor.Shape{2}),
		},
		"shape": {
			"fc1.weight": tensor.New(tensor.Float, tensor.Shape{3, 2}),
			"fc1.bias":   tensor.New(tensor.Float, tensor.Shape{2}),
		},
	}

	for name, state := range tests {
		err := c.net.LoadStateDict(state)
		assert.ErrorIs(t, err, nn.ErrStateDictMismatch, name)
	}
	assert.Equal(t, weight.AsFloat64(), c.fc.Weight().Tensor().AsFloat64(), "failed loads leave the network unchanged")
}

// TestOptimizerStateDict_Resume checks that restoring parameters together with
// velocities continues training exactly where it stopped.
func TestOptimizerStateDict_Resume(t *testing.T) {
	images := mustFloats(t, tensor.Shape{2, 3}, 1, 0, -1, 0.5, 0.5, 2)
	labels := mustIndices(t, tensor.Shape{2, 1}, 1, 0)
	data := []*tensor.Tensor{images, labels}

	src := newClassifier(nn.DefaultConfig(), 2, 3, 2)
	assert.Empty(t, src.net.OptimizerStateDict())
	require.NoError(t, src.net.Train(src.loss, 2, src.vars(), data))

	params, velocities := src.net.StateDict(), src.net.OptimizerStateDict()
	require.Contains(t, velocities, "velocity.fc1.weight")
	require.Contains(t, velocities, "velocity.fc1.bias")
	require.NoError(t, src.net.Train(src.loss, 1, src.vars(), data))

	resumed := newClassifier(nn.Config{LearningRate: 0.001, Momentum: 0.9, L2Decay: 0.0001, Seed: 5}, 2, 3, 2)
	require.NoError(t, resumed.net.LoadStateDict(params))
	require.NoError(t, resumed.net.LoadOptimizerStateDict(velocities))
	require.NoError(t, resumed.net.Train(resumed.loss, 1, resumed.vars(), data))
	assert.Equal(t, src.fc.Weight().Tensor().AsFloat64(), resumed.fc.Weight().Tensor().AsFloat64())

	cold := newClassifier(nn.DefaultConfig(), 2, 3, 2)
	require.NoError(t, cold.net.LoadStateDict(params))
	require.NoError(t, cold.net.Train(cold.loss, 1, cold.vars(), data))
	assert.NotEqual(t, src.fc.Weight().Tensor().AsFloat64(), cold.fc.Weight().Tensor().AsFloat64())

	bad := map[string]*tensor.Tensor{"velocity.fc1.bias": tensor.New(tensor.Float, tensor.Shape{3})}
	assert.ErrorIs(t, resumed.net.LoadOptimizerStateDict(bad), nn.ErrStateDictMismatch)
}

func TestConfig_ReadAtEveryUpdate(t *testing.T) {
	c := newClassifier(nn.DefaultConfig(), 1, 2, 2)
	images := mustFloats(t, tensor.Shape{1, 2}, 1, -1)
	labels := mustIndices(t, tensor.Shape{1, 1}, 0)
	data := []*tensor.Tensor{images, labels}

	cfg := c.net.Config()
	cfg.LearningRate, cfg.Momentum, cfg.L2Decay = 0, 0, 0
	before := c.fc.Weight().Tensor().Clone()

	require.NoError(t, c.net.Train(c.loss, 3, c.vars(), data))
	assert.Equal(t, before.AsFloat64(), c.fc.Weight().Tensor().AsFloat64())

	cfg.LearningRate = 0.5
	require.NoError(t, c.net.Train(c.loss, 1, c.vars(), data))
	assert.NotEqual(t, before.AsFloat64(), c.fc.Weight().Tensor().AsFloat64())
}
