package main

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/born-ml/noether/internal/dataset"
	"github.com/born-ml/noether/internal/report"
	"github.com/born-ml/noether/internal/serialization"
	"github.com/born-ml/noether/nn"
	"github.com/born-ml/noether/tensor"
)

const modelType = "cifar10-simple"

// model is the reference CIFAR-10 classifier:
// three conv-relu-maxpool stages, a 10-way fully connected layer, relu and
// softmax.
type model struct {
	net    *nn.Network
	input  *nn.Variable
	labels *nn.Variable
	loss   *nn.SoftMax
	batch  int
}

func newModel(batch int, opts ...nn.Option) *model {
	net := nn.NewNetwork(opts...)
	m := &model{net: net, batch: batch}

	m.input = net.CreateVariable(tensor.Shape{batch, dataset.CIFARSide, dataset.CIFARSide, dataset.CIFARChannels}, tensor.Float)
	m.labels = net.CreateVariable(tensor.Shape{batch, 1}, tensor.Index)

	var h nn.Node = m.input
	for _, depth := range []int{16, 20, 20} {
		h = net.CreateConvNode(h, depth, 5, 1, 2)
		h = net.CreateReLUNode(h)
		h = net.CreateMaxPoolNode(h, nn.PoolMax, 2, 2, 0)
	}
	h = net.CreateFullyConnectedNode(h, dataset.CIFARClasses)
	h = net.CreateReLUNode(h)
	m.loss = net.CreateSoftMaxNode(h, m.labels)
	return m
}

// train runs iterations training steps over set.
func (m *model) train(set *dataset.Set, iterations int) error {
	return m.net.Train(m.loss, iterations, []nn.Node{m.input, m.labels}, []*tensor.Tensor{set.Images, set.Labels})
}

// score classifies the first limit examples of set, one minibatch at a time.
// limit is rounded down to a whole number of minibatches.
func (m *model) score(set *dataset.Set, limit int) (*report.Score, error) {
	limit = min(limit, set.Len())

	var s report.Score
	sample := tensor.New(tensor.Float, m.input.Output().Shape())
	for first := 0; first+m.batch <= limit; first += m.batch {
		sample.CopyConsecutiveSlices(set.Images, first)
		probs, err := m.net.Infer(m.loss, []nn.Node{m.input}, []*tensor.Tensor{sample})
		if err != nil {
			return nil, err
		}
		s.AddBatch(probs, set.Labels, first)
	}
	return &s, nil
}

// velocityPrefix marks optimizer tensors in a checkpoint.
const velocityPrefix = "velocity."

// save writes the network parameters, SGD velocities and training state to
// path.
func (m *model) save(path string, iterations int) error {
	cfg := m.net.Config()
	header := serialization.Header{
		ModelType: modelType,
		Metadata:  map[string]string{"batch": fmt.Sprint(m.batch)},
		Training: &serialization.TrainingMeta{
			Iterations:   int64(iterations),
			Loss:         m.net.LastLoss(),
			LearningRate: cfg.LearningRate,
			Momentum:     cfg.Momentum,
			L2Decay:      cfg.L2Decay,
		},
	}
	state := m.net.StateDict()
	velocities := m.net.OptimizerStateDict()
	maps.Copy(state, velocities)
	if err := serialization.WriteFile(path, state, header); err != nil {
		return err
	}
	slog.Info("checkpoint written", "path", path, "parameters", len(m.net.Parameters()), "velocities", len(velocities))
	return nil
}

// load restores network parameters and any SGD velocities from the
// checkpoint at path.
func (m *model) load(path string) (*serialization.Header, error) {
	ckpt, err := serialization.ReadFile(path, serialization.ReaderOptions{})
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint %s: %w", path, err)
	}
	if ckpt.Header.ModelType != modelType {
		return nil, fmt.Errorf("checkpoint %s holds a %q model, expected %q", path, ckpt.Header.ModelType, modelType)
	}
	params := make(map[string]*tensor.Tensor, len(ckpt.Tensors))
	velocities := make(map[string]*tensor.Tensor)
	for name, t := range ckpt.Tensors {
		if strings.HasPrefix(name, velocityPrefix) {
			velocities[name] = t
		} else {
			params[name] = t
		}
	}
	if err := m.net.LoadStateDict(params); err != nil {
		return nil, fmt.Errorf("loading checkpoint %s: %w", path, err)
	}
	if err := m.net.LoadOptimizerStateDict(velocities); err != nil {
		return nil, fmt.Errorf("loading checkpoint %s: %w", path, err)
	}
	slog.Info("checkpoint loaded", "path", path, "created", ckpt.Header.CreatedAt)
	return &ckpt.Header, nil
}

// batchPaths resolves comma-separated batch file names against dir.
func batchPaths(dir, files string) ([]string, error) {
	var paths []string
	for _, f := range strings.Split(files, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if !filepath.IsAbs(f) {
			f = filepath.Join(dir, f)
		}
		if _, err := os.Stat(f); err != nil {
			return nil, err
		}
		paths = append(paths, f)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no dataset files in %q", files)
	}
	return paths, nil
}
