package tensor

import (
	"fmt"
	"io"
	"math/rand"
)

// Handle is a typed, bounds-checked accessor over a Tensor.
//
// A Handle does not own storage; writes through it modify the tensor.
//
// Example:
//
//	labels := tensor.New(tensor.Index, tensor.Shape{8, 1})
//	h := labels.IndexHandle()
//	*h.Ref(3, 0) = 7
type Handle[T Element] struct {
	tensor *Tensor
	data   []T
}

// HandleFor returns a Handle of element type T over t.
// Panics if T does not match the tensor's element kind.
func HandleFor[T Element](t *Tensor) *Handle[T] {
	want := kindOf[T]()
	if t.kind != want {
		panic(fmt.Sprintf("tensor: cannot view %s tensor as %s", t.kind, want))
	}

	var data []T
	switch want {
	case Float:
		data = any(t.floats).([]T)
	case Index:
		data = any(t.ints).([]T)
	}
	return &Handle[T]{tensor: t, data: data}
}

// Tensor returns the tensor the handle views.
func (h *Handle[T]) Tensor() *Tensor {
	return h.tensor
}

// Dims returns the viewed tensor's shape. Callers must not modify it.
func (h *Handle[T]) Dims() Shape {
	return h.tensor.shape
}

// Raw returns the flat row-major element slice.
func (h *Handle[T]) Raw() []T {
	return h.data
}

// Offset translates coordinates into a flat row-major offset.
// Panics if the coordinate count differs from the rank or any coordinate is out of bounds.
func (h *Handle[T]) Offset(coords ...int) int {
	shape := h.tensor.shape
	if len(coords) != len(shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(shape), len(coords)))
	}

	offset := 0
	for i, idx := range coords {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, shape[i]))
		}
		offset += idx * h.tensor.stride[i]
	}
	return offset
}

// At returns the element at the given coordinates.
func (h *Handle[T]) At(coords ...int) T {
	return h.data[h.Offset(coords...)]
}

// Set stores value at the given coordinates.
func (h *Handle[T]) Set(value T, coords ...int) {
	h.data[h.Offset(coords...)] = value
}

// Ref returns a pointer to the element at the given coordinates.
func (h *Handle[T]) Ref(coords ...int) *T {
	return &h.data[h.Offset(coords...)]
}

// ExtractSlice returns an independent copy of the outer slice idx.
func (h *Handle[T]) ExtractSlice(idx int) *Tensor {
	return h.tensor.ExtractSlice(idx)
}

// MaxArg returns the flat index of the largest element.
// Ties resolve to the first maximum in row-major order.
func (h *Handle[T]) MaxArg() int {
	if len(h.data) == 0 {
		panic("tensor: MaxArg of empty tensor")
	}

	best := 0
	for i, v := range h.data {
		if v > h.data[best] {
			best = i
		}
	}
	return best
}

// Fill sets every element to value.
func (h *Handle[T]) Fill(value T) {
	for i := range h.data {
		h.data[i] = value
	}
}

// RandomizeUniform fills the tensor with values drawn uniformly from [-bound, bound].
func (h *Handle[T]) RandomizeUniform(rng *rand.Rand, bound float64) {
	for i := range h.data {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		h.data[i] = T((rng.Float64()*2.0 - 1.0) * bound)
	}
}

// Dump writes every element to w, prefixed by prefix and separated by sep.
func (h *Handle[T]) Dump(w io.Writer, prefix, sep string) error {
	if _, err := io.WriteString(w, prefix); err != nil {
		return err
	}
	for i, v := range h.data {
		if i > 0 {
			if _, err := io.WriteString(w, sep); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(w, v); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}
