// Package tensor provides the flat numeric buffers the Ember update engine
// operates on.
package tensor

import "fmt"

// DataType represents runtime type information for buffers.
type DataType int

// Supported numeric precisions.
//
// Float16 is a storage-only precision: buffers can hold half-precision
// values, but arithmetic happens after widening to float32.
const (
	Float32 DataType = iota
	Float64
	Float16
)

// Size returns the byte size of one element of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	case Float16:
		return 2
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float16:
		return "float16"
	default:
		return "unknown"
	}
}

// ParseDataType maps a precision name from configuration onto a DataType.
// Recognized names are "float16", "float32" and "float64".
func ParseDataType(s string) (DataType, error) {
	switch s {
	case "float32":
		return Float32, nil
	case "float64":
		return Float64, nil
	case "float16":
		return Float16, nil
	default:
		return 0, fmt.Errorf("unknown precision type %q", s)
	}
}
