package tensor

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_RowMajorOffsets(t *testing.T) {
	x := New(Float, Shape{2, 3, 4})
	h := x.FloatHandle()

	assert.Equal(t, 0, h.Offset(0, 0, 0))
	assert.Equal(t, 1, h.Offset(0, 0, 1))
	assert.Equal(t, 4, h.Offset(0, 1, 0))
	assert.Equal(t, 12, h.Offset(1, 0, 0))
	assert.Equal(t, 23, h.Offset(1, 2, 3))
}

func TestHandle_ReadWrite(t *testing.T) {
	x := New(Float, Shape{2, 2})
	h := x.FloatHandle()

	h.Set(3.5, 1, 0)
	*h.Ref(0, 1) += 2

	assert.Equal(t, 3.5, h.At(1, 0))
	assert.Equal(t, 2.0, h.At(0, 1))
	assert.Equal(t, []float64{0, 2, 3.5, 0}, x.AsFloat64())
}

func TestHandle_BoundsChecks(t *testing.T) {
	h := New(Index, Shape{2, 3}).IndexHandle()

	tests := []struct {
		name   string
		coords []int
	}{
		{"too few coordinates", []int{1}},
		{"too many coordinates", []int{1, 1, 1}},
		{"outer out of range", []int{2, 0}},
		{"inner out of range", []int{0, 3}},
		{"negative", []int{0, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() { h.At(tt.coords...) })
			assert.Panics(t, func() { h.Set(1, tt.coords...) })
		})
	}
}

func TestHandle_MaxArg(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		want int
	}{
		{"single", []float64{1}, 0},
		{"last", []float64{0.1, 0.2, 0.7}, 2},
		{"first of ties", []float64{0.5, 0.9, 0.9, 0.1}, 1},
		{"negative values", []float64{-3, -1, -2}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := FromFloats(Shape{len(tt.data)}, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, x.FloatHandle().MaxArg())
		})
	}
}

func TestHandle_MaxArgOverSlice(t *testing.T) {
	probs, err := FromFloats(Shape{2, 3}, []float64{0.1, 0.8, 0.1, 0.6, 0.3, 0.1})
	require.NoError(t, err)

	assert.Equal(t, 1, probs.FloatHandle().ExtractSlice(0).FloatHandle().MaxArg())
	assert.Equal(t, 0, probs.FloatHandle().ExtractSlice(1).FloatHandle().MaxArg())
}

func TestHandle_RandomizeUniform(t *testing.T) {
	x := New(Float, Shape{100})
	x.FloatHandle().RandomizeUniform(rand.New(rand.NewSource(7)), 0.5)

	for _, v := range x.AsFloat64() {
		assert.LessOrEqual(t, v, 0.5)
		assert.GreaterOrEqual(t, v, -0.5)
	}

	y := New(Float, Shape{100})
	y.FloatHandle().RandomizeUniform(rand.New(rand.NewSource(7)), 0.5)
	assert.Equal(t, x.AsFloat64(), y.AsFloat64(), "same seed must give same values")
}

func TestHandle_Dump(t *testing.T) {
	x, err := FromIndices(Shape{3}, []int64{1, 2, 3})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, x.IndexHandle().Dump(&buf, "labels: ", " "))
	assert.Equal(t, "labels: 1 2 3\n", buf.String())
}
