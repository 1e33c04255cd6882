// Copyright 2026 Ember ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the flat parameter buffers the update engine
// operates on, with float32, float64 and float16 element types.
package tensor

import (
	"github.com/ember-ml/ember/internal/tensor"
)

// DataType identifies the element type of a Buffer.
type DataType = tensor.DataType

const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
	Float16 = tensor.Float16
)

// ParseDataType resolves a precision name such as "float16".
func ParseDataType(s string) (DataType, error) {
	return tensor.ParseDataType(s)
}

// Buffer is a flat, contiguous vector of one element type.
type Buffer = tensor.Buffer

// New allocates a zeroed buffer of n elements.
func New(n int, dtype DataType) *Buffer {
	return tensor.New(n, dtype)
}

// FromFloat32 builds a buffer of the given type from float32 values,
// converting each element.
func FromFloat32(vals []float32, dtype DataType) *Buffer {
	return tensor.FromFloat32(vals, dtype)
}

// Float32ToFloat16 converts one value to IEEE 754 binary16 bits,
// rounding to nearest even.
func Float32ToFloat16(f float32) uint16 {
	return tensor.Float32ToFloat16(f)
}

// Float16ToFloat32 converts IEEE 754 binary16 bits to float32. The
// conversion is exact.
func Float16ToFloat32(bits uint16) float32 {
	return tensor.Float16ToFloat32(bits)
}
