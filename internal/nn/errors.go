package nn

import (
	"errors"

	"github.com/born-ml/noether/internal/backend/cpu"
)

// Common errors returned by Train, Infer and LoadStateDict.
var (
	ErrBindingMismatch   = errors.New("data tensor does not match variable")
	ErrNotVariable       = errors.New("bound node is not a variable")
	ErrForeignNode       = errors.New("node belongs to another network")
	ErrNotLossNode       = errors.New("training target is not a softmax node")
	ErrStateDictMismatch = errors.New("state dict does not match network parameters")

	// ErrLabelOutOfRange is returned when a label does not index into the
	// softmax vector.
	ErrLabelOutOfRange = cpu.ErrLabelOutOfRange
)
