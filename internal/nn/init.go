package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/noether/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// Values come from rng so that a network built from the same seed always
// starts from the same weights.
//
// Parameters:
//   - rng: Random source owned by the network
//   - fanIn: Number of input units
//   - fanOut: Number of output units
//   - shape: Shape of the weight tensor
//
// Returns a Float tensor initialized with the Xavier distribution.
func Xavier(rng *rand.Rand, fanIn, fanOut int, shape tensor.Shape) *tensor.Tensor {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	t := tensor.New(tensor.Float, shape)
	t.FloatHandle().RandomizeUniform(rng, bound)
	return t
}

// Zeros creates a Float tensor filled with zeros.
//
// This is used for bias initialization.
func Zeros(shape tensor.Shape) *tensor.Tensor {
	return tensor.New(tensor.Float, shape)
}
