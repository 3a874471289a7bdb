package serialization

import (
	"time"

	"github.com/born-ml/noether/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "NOTH"
	FormatVersion   = 1    // v1: fixed header with SHA-256 checksum
	HeaderAlignment = 64   // Align tensor data to 64 bytes
	FixedHeaderSize = 64   // Fixed header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size (32 bytes)
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
)

// Data type string constants for serialization.
const (
	DTypeFloat64 = "float64"
	DTypeInt64   = "int64"
)

// Flags for the .nth format.
const (
	FlagHasMetadata uint32 = 1 << 0 // bit 0: custom metadata included
	FlagHasTraining uint32 = 1 << 1 // bit 1: training state included
)

// Header represents the JSON header in a .nth file.
type Header struct {
	FormatVersion  int               `json:"format_version"`     // Version of the .nth format
	NoetherVersion string            `json:"noether_version"`    // Version of noether that created this file
	ModelType      string            `json:"model_type"`         // Free-form network description
	CreatedAt      time.Time         `json:"created_at"`         // When the file was created
	Tensors        []TensorMeta      `json:"tensors"`            // Tensor metadata
	Metadata       map[string]string `json:"metadata"`           // Custom metadata
	Training       *TrainingMeta     `json:"training,omitempty"` // Training state (optional)
}

// TrainingMeta records where training stood when the checkpoint was written.
type TrainingMeta struct {
	Iterations   int64   `json:"iterations"`    // Training steps run so far
	Loss         float64 `json:"loss"`          // Mean loss of the last step
	LearningRate float64 `json:"learning_rate"` // SGD step size
	Momentum     float64 `json:"momentum"`      // SGD momentum
	L2Decay      float64 `json:"l2_decay"`      // SGD weight decay
}

// TensorMeta describes a tensor in the .nth file.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g., "conv1.weight")
	DType  string `json:"dtype"`  // Element type ("float64" or "int64")
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset in the data section (bytes from start of tensor data)
	Size   int64  `json:"size"`   // Size in bytes
}

// kindToString converts tensor.ElemKind to its string representation.
func kindToString(k tensor.ElemKind) string {
	switch k {
	case tensor.Float:
		return DTypeFloat64
	case tensor.Index:
		return DTypeInt64
	default:
		return "unknown"
	}
}

// stringToKind converts a string representation to tensor.ElemKind.
func stringToKind(s string) (tensor.ElemKind, bool) {
	switch s {
	case DTypeFloat64:
		return tensor.Float, true
	case DTypeInt64:
		return tensor.Index, true
	default:
		return 0, false
	}
}

// alignedOffset returns the start of the data section for a JSON header of
// headerSize bytes.
func alignedOffset(headerSize int64) int64 {
	pos := int64(FixedHeaderSize) + headerSize
	return pos + (HeaderAlignment-pos%HeaderAlignment)%HeaderAlignment
}
