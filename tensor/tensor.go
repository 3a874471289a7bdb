// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the typed, shaped tensors that noether networks
// consume and produce.
//
// # Overview
//
// A Tensor owns a contiguous block of float64 (Float) or int64 (Index)
// elements in row-major order. Elements are read and written through a
// Handle, which translates coordinates to offsets and checks bounds:
//
//	images := tensor.New(tensor.Float, tensor.Shape{10000, 32, 32, 3})
//	h := images.FloatHandle()
//	h.Set(0.5, 0, 1, 2, 0)
//
// The outer dimension indexes examples. ExtractSlice, CopySlice and
// CopyConsecutiveSlices move whole examples between tensors:
//
//	batch := tensor.New(tensor.Float, tensor.Shape{8, 32, 32, 3})
//	batch.CopyConsecutiveSlices(images, 16) // examples 16..23
//	first := images.ExtractSlice(0)         // shape [32, 32, 3]
//
// Using a tensor as the wrong element kind, or any out-of-range coordinate,
// panics.
package tensor

import "github.com/born-ml/noether/internal/tensor"

// ElemKind tags the element semantics of a tensor.
type ElemKind = tensor.ElemKind

// Element kinds.
const (
	Float = tensor.Float // float64 activations, parameters and gradients
	Index = tensor.Index // int64 indices and labels
)

// Element is the set of Go types a Handle can expose.
type Element = tensor.Element

// Shape is an ordered list of non-negative dimensions.
type Shape = tensor.Shape

// Tensor owns typed, shaped, contiguous numeric storage.
type Tensor = tensor.Tensor

// Handle is a typed accessor over a tensor's storage.
type Handle[T Element] = tensor.Handle[T]

// New creates a zero-initialized tensor.
func New(kind ElemKind, shape Shape) *Tensor {
	return tensor.New(kind, shape)
}

// FromFloats creates a Float tensor holding a copy of data.
func FromFloats(shape Shape, data []float64) (*Tensor, error) {
	return tensor.FromFloats(shape, data)
}

// FromIndices creates an Index tensor holding a copy of data.
func FromIndices(shape Shape, data []int64) (*Tensor, error) {
	return tensor.FromIndices(shape, data)
}

// HandleFor returns a Handle of element type T over t.
// Panics if T does not match t's element kind.
func HandleFor[T Element](t *Tensor) *Handle[T] {
	return tensor.HandleFor[T](t)
}
