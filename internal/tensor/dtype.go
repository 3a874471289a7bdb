// Package tensor provides the typed, shaped tensor storage used by the noether graph engine.
package tensor

// Element is a constraint for the Go types a Handle can expose.
//
// Float tensors are accessed as float64, Index tensors as int64.
type Element interface {
	float64 | int64
}

// ElemKind tags the element semantics of a tensor.
type ElemKind int

// Supported element kinds.
const (
	// Float holds activations, parameters and gradients.
	Float ElemKind = iota
	// Index holds integer indices and class labels.
	Index
)

// Size returns the byte size of one element of the kind.
func (k ElemKind) Size() int {
	switch k {
	case Float, Index:
		return 8
	default:
		panic("unknown element kind")
	}
}

// String returns a human-readable name for the element kind.
func (k ElemKind) String() string {
	switch k {
	case Float:
		return "float"
	case Index:
		return "index"
	default:
		return "unknown"
	}
}

// kindOf infers the ElemKind that backs the Go type T.
func kindOf[T Element]() ElemKind {
	var dummy T
	switch any(dummy).(type) {
	case float64:
		return Float
	case int64:
		return Index
	default:
		panic("unsupported element type")
	}
}
