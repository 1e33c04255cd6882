package optim

import "gonum.org/v1/gonum/blas/blas32"

// Clipper rescales a gradient in place when its global L2 norm exceeds
// a threshold. It is a stateless policy: a pure function of its input.
type Clipper struct {
	MaxNorm float32
}

// Clip applies global-norm clipping to g and returns the norm observed
// before clipping. A nil clipper or non-positive threshold leaves the
// gradient untouched.
func (c *Clipper) Clip(g []float32) float32 {
	if len(g) == 0 {
		return 0
	}
	v := blas32.Vector{N: len(g), Inc: 1, Data: g}
	norm := blas32.Nrm2(v)
	if c == nil || c.MaxNorm <= 0 {
		return norm
	}
	if norm > c.MaxNorm {
		blas32.Scal(c.MaxNorm/norm, v)
	}
	return norm
}
