package tensor

import "fmt"

// Tensor owns a typed, shaped, contiguous block of numeric storage.
//
// The shape is fixed at construction and the storage is never shared with
// another Tensor. Element access goes through a Handle:
//
//	t := tensor.New(tensor.Float, tensor.Shape{2, 3})
//	h := t.FloatHandle()
//	h.Set(1.5, 1, 2)
//	v := h.At(1, 2) // 1.5
type Tensor struct {
	kind   ElemKind
	shape  Shape
	stride []int
	floats []float64 // Backing store when kind == Float
	ints   []int64   // Backing store when kind == Index
}

// New creates a zero-initialized tensor of the given kind and shape.
// Panics if the shape contains a negative dimension.
func New(kind ElemKind, shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor: invalid shape %v: %v", shape, err))
	}

	t := &Tensor{
		kind:   kind,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
	}

	switch kind {
	case Float:
		t.floats = make([]float64, shape.NumElements())
	case Index:
		t.ints = make([]int64, shape.NumElements())
	default:
		panic(fmt.Sprintf("tensor: unknown element kind %d", kind))
	}
	return t
}

// FromFloats creates a Float tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromFloats(shape Shape, data []float64) (*Tensor, error) {
	return fromSlice(shape, data)
}

// FromIndices creates an Index tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromIndices(shape Shape, data []int64) (*Tensor, error) {
	return fromSlice(shape, data)
}

func fromSlice[T Element](shape Shape, data []T) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	t := New(kindOf[T](), shape)
	copy(HandleFor[T](t).Raw(), data)
	return t, nil
}

// Kind returns the tensor's element kind.
func (t *Tensor) Kind() ElemKind {
	return t.kind
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape.Clone()
}

// Dims returns the tensor's shape without copying. Callers must not modify it.
func (t *Tensor) Dims() Shape {
	return t.shape
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// Strides returns the row-major strides of the tensor.
func (t *Tensor) Strides() []int {
	return t.stride
}

// AsFloat64 returns the backing storage of a Float tensor.
// Panics if the tensor's kind is not Float.
//
// WARNING: Modifications to the returned slice modify the tensor.
func (t *Tensor) AsFloat64() []float64 {
	if t.kind != Float {
		panic(fmt.Sprintf("tensor kind is %s, not float", t.kind))
	}
	return t.floats
}

// AsInt64 returns the backing storage of an Index tensor.
// Panics if the tensor's kind is not Index.
func (t *Tensor) AsInt64() []int64 {
	if t.kind != Index {
		panic(fmt.Sprintf("tensor kind is %s, not index", t.kind))
	}
	return t.ints
}

// FloatHandle returns a Handle over a Float tensor.
func (t *Tensor) FloatHandle() *Handle[float64] {
	return HandleFor[float64](t)
}

// IndexHandle returns a Handle over an Index tensor.
func (t *Tensor) IndexHandle() *Handle[int64] {
	return HandleFor[int64](t)
}

// SameLayout reports whether other has the same kind and shape.
func (t *Tensor) SameLayout(other *Tensor) bool {
	return t.kind == other.kind && t.shape.Equal(other.shape)
}

// Zero resets every element to zero.
func (t *Tensor) Zero() {
	clear(t.floats)
	clear(t.ints)
}

// Clone creates a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	c := New(t.kind, t.shape)
	copy(c.floats, t.floats)
	copy(c.ints, t.ints)
	return c
}

// CopyFrom overwrites the tensor with the contents of src.
// Panics unless src has the same kind and shape.
func (t *Tensor) CopyFrom(src *Tensor) {
	if !t.SameLayout(src) {
		panic(fmt.Sprintf("tensor: cannot copy %s%v into %s%v", src.kind, src.shape, t.kind, t.shape))
	}
	copy(t.floats, src.floats)
	copy(t.ints, src.ints)
}

// ExtractSlice returns an independent copy of the sub-tensor obtained by fixing
// the outermost dimension to idx.
//
// The result has the shape without the outer dimension; slicing a rank-1
// tensor yields a tensor of shape {1}.
func (t *Tensor) ExtractSlice(idx int) *Tensor {
	t.checkOuter("ExtractSlice", idx, 1)

	inner := t.shape.Inner()
	if len(inner) == 0 {
		inner = Shape{1}
	}

	s := New(t.kind, inner)
	s.copyOuterRange(t, idx, 0, 1)
	return s
}

// CopySlice copies the outer slice srcIdx of src into the outer slice dstIdx of t.
// Panics when kinds or inner dimensions differ or an index is out of range.
func (t *Tensor) CopySlice(src *Tensor, srcIdx, dstIdx int) {
	t.checkCompatible("CopySlice", src)
	src.checkOuter("CopySlice", srcIdx, 1)
	t.checkOuter("CopySlice", dstIdx, 1)
	t.copyOuterRange(src, srcIdx, dstIdx, 1)
}

// CopyConsecutiveSlices copies t's outer-dimension count of consecutive slices
// from src, beginning at src slice start, into t.
//
// Panics when kinds or inner dimensions differ or the run would exceed the
// bounds of src.
func (t *Tensor) CopyConsecutiveSlices(src *Tensor, start int) {
	t.checkCompatible("CopyConsecutiveSlices", src)
	count := t.shape[0]
	src.checkOuter("CopyConsecutiveSlices", start, count)
	t.copyOuterRange(src, start, 0, count)
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[%s]%v", t.kind, t.shape)
}

func (t *Tensor) sliceSize() int {
	if len(t.shape) == 0 {
		return 1
	}
	return t.shape.Inner().NumElements()
}

func (t *Tensor) copyOuterRange(src *Tensor, srcIdx, dstIdx, count int) {
	n := src.sliceSize()
	from, to := srcIdx*n, dstIdx*n
	switch t.kind {
	case Float:
		copy(t.floats[to:to+count*n], src.floats[from:from+count*n])
	case Index:
		copy(t.ints[to:to+count*n], src.ints[from:from+count*n])
	}
}

func (t *Tensor) checkOuter(op string, start, count int) {
	if len(t.shape) == 0 {
		panic(fmt.Sprintf("tensor: %s on scalar tensor", op))
	}
	if start < 0 || count < 0 || start+count > t.shape[0] {
		panic(fmt.Sprintf("tensor: %s range [%d, %d) out of bounds for outer dimension %d",
			op, start, start+count, t.shape[0]))
	}
}

func (t *Tensor) checkCompatible(op string, src *Tensor) {
	if t.kind != src.kind {
		panic(fmt.Sprintf("tensor: %s kind mismatch: %s vs %s", op, t.kind, src.kind))
	}
	if len(t.shape) == 0 || len(src.shape) == 0 || !t.shape.Inner().Equal(src.shape.Inner()) {
		panic(fmt.Sprintf("tensor: %s shape mismatch: %v vs %v", op, t.shape, src.shape))
	}
}
