package tensor

import (
	"fmt"
	"unsafe"
)

// Buffer is a flat, contiguous vector of numeric values in a single
// precision. Parameter and gradient vectors, as well as optimizer
// accumulators, are all Buffers.
//
// A Buffer has no shape beyond its length: the update engine treats the
// model as one global vector, physically partitioned into per-shard
// sub-vectors via Slice.
type Buffer struct {
	data  []byte
	dtype DataType
	n     int
}

// New allocates a zero-initialized Buffer of n elements.
func New(n int, dtype DataType) *Buffer {
	if n < 0 {
		panic(fmt.Sprintf("negative buffer length %d", n))
	}
	return &Buffer{
		data:  make([]byte, n*dtype.Size()),
		dtype: dtype,
		n:     n,
	}
}

// FromFloat32 allocates a Buffer of the given precision holding vals,
// converting each element as needed.
func FromFloat32(vals []float32, dtype DataType) *Buffer {
	b := New(len(vals), dtype)
	switch dtype {
	case Float32:
		copy(b.AsFloat32(), vals)
	case Float64:
		dst := b.AsFloat64()
		for i, v := range vals {
			dst[i] = float64(v)
		}
	case Float16:
		dst := b.AsUint16()
		for i, v := range vals {
			dst[i] = Float32ToFloat16(v)
		}
	}
	return b
}

// Len returns the number of elements.
func (b *Buffer) Len() int { return b.n }

// DType returns the buffer's precision.
func (b *Buffer) DType() DataType { return b.dtype }

// ByteSize returns the total memory size in bytes.
func (b *Buffer) ByteSize() int { return b.n * b.dtype.Size() }

// Bytes returns the raw byte slice backing the buffer.
// WARNING: direct access to underlying memory. Use with caution.
func (b *Buffer) Bytes() []byte { return b.data }

// AsFloat32 interprets the data as []float32.
// Panics if the buffer's dtype is not Float32.
func (b *Buffer) AsFloat32() []float32 {
	if b.dtype != Float32 {
		panic(fmt.Sprintf("buffer dtype is %s, not float32", b.dtype))
	}
	if b.n == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b.data[0])), b.n)
}

// AsFloat64 interprets the data as []float64.
// Panics if the buffer's dtype is not Float64.
func (b *Buffer) AsFloat64() []float64 {
	if b.dtype != Float64 {
		panic(fmt.Sprintf("buffer dtype is %s, not float64", b.dtype))
	}
	if b.n == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&b.data[0])), b.n)
}

// AsUint16 interprets the data as raw half-precision bit patterns.
// Panics if the buffer's dtype is not Float16.
func (b *Buffer) AsUint16() []uint16 {
	if b.dtype != Float16 {
		panic(fmt.Sprintf("buffer dtype is %s, not float16", b.dtype))
	}
	if b.n == 0 {
		return nil
	}
	return unsafe.Slice((*uint16)(unsafe.Pointer(&b.data[0])), b.n)
}

// Slice returns a view of elements [begin, end) sharing the underlying
// memory. Mutations through the view are visible in the parent.
func (b *Buffer) Slice(begin, end int) *Buffer {
	if begin < 0 || end < begin || end > b.n {
		panic(fmt.Sprintf("slice bounds [%d, %d) out of range for length %d", begin, end, b.n))
	}
	sz := b.dtype.Size()
	return &Buffer{
		data:  b.data[begin*sz : end*sz : end*sz],
		dtype: b.dtype,
		n:     end - begin,
	}
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	c := New(b.n, b.dtype)
	copy(c.data, b.data)
	return c
}

// Zero sets all elements to zero.
func (b *Buffer) Zero() {
	clear(b.data)
}

// Get returns element i widened to float32, regardless of precision.
func (b *Buffer) Get(i int) float32 {
	switch b.dtype {
	case Float32:
		return b.AsFloat32()[i]
	case Float64:
		return float32(b.AsFloat64()[i])
	case Float16:
		return Float16ToFloat32(b.AsUint16()[i])
	default:
		panic("unknown data type")
	}
}

// Set stores v into element i, narrowing to the buffer's precision.
func (b *Buffer) Set(i int, v float32) {
	switch b.dtype {
	case Float32:
		b.AsFloat32()[i] = v
	case Float64:
		b.AsFloat64()[i] = float64(v)
	case Float16:
		b.AsUint16()[i] = Float32ToFloat16(v)
	default:
		panic("unknown data type")
	}
}

// CopyFrom copies src into b. Both buffers must have the same length
// and precision.
func (b *Buffer) CopyFrom(src *Buffer) {
	if src.n != b.n || src.dtype != b.dtype {
		panic(fmt.Sprintf("copy mismatch: %d %s into %d %s", src.n, src.dtype, b.n, b.dtype))
	}
	copy(b.data, src.data)
}

// CastFrom converts src element by element into b's precision. Both
// buffers must have the same length. Equal precisions degenerate to a
// plain copy.
func (b *Buffer) CastFrom(src *Buffer) {
	if src.n != b.n {
		panic(fmt.Sprintf("cast length mismatch: %d into %d", src.n, b.n))
	}
	if src.dtype == b.dtype {
		copy(b.data, src.data)
		return
	}
	switch {
	case b.dtype == Float32 && src.dtype == Float16:
		dst, s := b.AsFloat32(), src.AsUint16()
		for i := range dst {
			dst[i] = Float16ToFloat32(s[i])
		}
	case b.dtype == Float16 && src.dtype == Float32:
		dst, s := b.AsUint16(), src.AsFloat32()
		for i := range dst {
			dst[i] = Float32ToFloat16(s[i])
		}
	case b.dtype == Float32 && src.dtype == Float64:
		dst, s := b.AsFloat32(), src.AsFloat64()
		for i := range dst {
			dst[i] = float32(s[i])
		}
	case b.dtype == Float64 && src.dtype == Float32:
		dst, s := b.AsFloat64(), src.AsFloat32()
		for i := range dst {
			dst[i] = float64(s[i])
		}
	default:
		// Remaining pairs route through float32.
		for i := 0; i < b.n; i++ {
			b.Set(i, src.Get(i))
		}
	}
}

// SetBytes overwrites the buffer's contents with raw bytes in its own
// precision. The payload length must match exactly.
func (b *Buffer) SetBytes(p []byte) error {
	if len(p) != len(b.data) {
		return fmt.Errorf("payload is %d bytes, buffer holds %d", len(p), len(b.data))
	}
	copy(b.data, p)
	return nil
}
