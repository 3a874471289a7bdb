package nn

import "github.com/born-ml/noether/internal/optim"

// Config holds the training hyperparameters of a Network.
//
// The learning-rate fields are read at every parameter update, so changing
// them between Train calls (or from a Reporter) takes effect immediately.
// Seed is read once by NewNetwork to seed weight initialization.
type Config struct {
	LearningRate float64 // Step size
	Momentum     float64 // Velocity retention factor
	L2Decay      float64 // Weight-decay coefficient
	Seed         int64   // Weight initialization seed
}

// DefaultConfig returns the default training configuration.
func DefaultConfig() Config {
	return Config{
		LearningRate: 0.001,
		Momentum:     0.9,
		L2Decay:      0.0001,
		Seed:         1,
	}
}

func (c *Config) optim() optim.Config {
	return optim.Config{
		LearningRate: c.LearningRate,
		Momentum:     c.Momentum,
		L2Decay:      c.L2Decay,
	}
}
