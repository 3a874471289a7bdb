package report

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/noether/internal/nn"
	"github.com/born-ml/noether/internal/tensor"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogReporter_LogsWindowMean(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(slog.New(slog.NewJSONHandler(&buf, nil)), 2)

	for i, loss := range []float64{1, 3, 5} {
		r.Report(nn.Progress{Iteration: i + 1, Iterations: 3, Examples: 8, Loss: loss})
	}

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "training", lines[0]["msg"])
	assert.InDelta(t, 2.0, lines[0]["loss"], 1e-12)
	assert.InDelta(t, 2.0, lines[0]["iteration"], 0)
	assert.InDelta(t, 5.0, lines[1]["loss"], 1e-12, "final partial window")
	assert.InDelta(t, 24.0, lines[1]["examples"], 0)

	assert.Equal(t, 3, r.Iterations())
	assert.Equal(t, 24, r.Examples())
}

func TestLogReporter_CountsAcrossTrainCalls(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(slog.New(slog.NewJSONHandler(&buf, nil)), 0)

	r.Report(nn.Progress{Iteration: 1, Iterations: 1, Examples: 4, Loss: 0.5})
	r.Report(nn.Progress{Iteration: 1, Iterations: 1, Examples: 4, Loss: 0.25})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.InDelta(t, 2.0, lines[1]["iteration"], 0)
	assert.InDelta(t, 0.25, lines[1]["loss"], 1e-12)
}

func TestTimer_Throughput(t *testing.T) {
	clock := time.Unix(0, 0)
	timer := startTimer(512, func() time.Time { return clock })
	clock = clock.Add(2 * time.Second)

	tp := timer.Stop()
	assert.Equal(t, 2*time.Second, tp.Elapsed)
	assert.InDelta(t, 256.0, tp.PerSecond(), 1e-9)
	assert.Equal(t, "256.0 examples/sec", tp.String())

	assert.Zero(t, Throughput{Examples: 10}.PerSecond())
	assert.Equal(t, slog.KindGroup, tp.LogValue().Kind())
}

func TestScore_AddBatch(t *testing.T) {
	probs, err := tensor.FromFloats(tensor.Shape{2, 3}, []float64{
		0.1, 0.7, 0.2,
		0.6, 0.3, 0.1,
	})
	require.NoError(t, err)
	labels, err := tensor.FromIndices(tensor.Shape{4, 1}, []int64{9, 9, 1, 2})
	require.NoError(t, err)

	var s Score
	s.AddBatch(probs, labels, 2)

	assert.Equal(t, []Guess{
		{Example: 2, Expected: 1, Predicted: 1},
		{Example: 3, Expected: 2, Predicted: 0},
	}, s.Guesses())
	assert.Equal(t, 1, s.Correct())
	assert.Equal(t, 2, s.Total())
	assert.InDelta(t, 50.0, s.Percent(), 1e-12)
	assert.Equal(t, "1/2 (50.0%)", s.String())
}

func TestScore_Render(t *testing.T) {
	var s Score
	s.Add(0, 0, 0)
	s.Add(1, 1, 2)
	s.Add(2, 2, 2)

	names := func(l int64) string { return []string{"airplane", "automobile", "bird"}[l] }

	var buf bytes.Buffer
	s.Render(&buf, names, 2)
	out := buf.String()

	assert.Contains(t, out, "EXPECTED")
	assert.Contains(t, out, "airplane")
	assert.Contains(t, out, "automobile")
	assert.Equal(t, 1, strings.Count(out, "bird"), "limit drops the last row")
}

func TestScore_Empty(t *testing.T) {
	var s Score
	assert.Zero(t, s.Percent())
	assert.Zero(t, s.Total())
}
