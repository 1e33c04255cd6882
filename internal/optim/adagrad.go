package optim

import (
	"fmt"
	"math"

	"github.com/ember-ml/ember/internal/parallel"
	"github.com/ember-ml/ember/internal/tensor"
)

// adagrad scales each coordinate's step by the inverse square root of
// its accumulated squared gradients:
//
//	gt[i]     += grads[i]^2
//	params[i] -= eta * grads[i] / (sqrt(gt[i]) + eps)
//
// The per-coordinate effective step size is monotonically non-increasing
// as gt grows.
//
// Reference: Duchi, Hazan & Singer, JMLR 12 (2011).
type adagrad struct {
	eps float32

	gt *tensor.Buffer // Running sum of squared gradients.
}

func newAdagrad() *adagrad {
	return &adagrad{eps: 1e-8}
}

func (a *adagrad) name() string { return "adagrad" }

func (a *adagrad) step(params, grads []float32, eta float32, _ float64, _ int64, par parallel.Config) {
	if a.gt == nil {
		a.gt = tensor.New(len(params), tensor.Float32)
	} else if a.gt.Len() != len(params) {
		panic(fmt.Sprintf("adagrad state has %d elements, params %d", a.gt.Len(), len(params)))
	}
	gt := a.gt.AsFloat32()
	eps := a.eps

	parallel.ForChunks(len(params), func(begin, end int) {
		for i := begin; i < end; i++ {
			g := grads[i]
			gt[i] += g * g
			params[i] -= eta * g / (sqrt32(gt[i]) + eps)
		}
	}, par)
}

func (a *adagrad) resetStats() {
	if a.gt != nil {
		a.gt.Zero()
	}
}

func (a *adagrad) onLoaded(int64) {}

// setParams accepts [eps].
func (a *adagrad) setParams(vals []float32) {
	if len(vals) > 0 {
		a.eps = vals[0]
	}
}

func (a *adagrad) stateNames() []string { return []string{"adagrad_gt"} }

func (a *adagrad) stateBytes(name string) ([]byte, error) {
	if name != "adagrad_gt" {
		return nil, fmt.Errorf("adagrad has no state item %q", name)
	}
	if a.gt == nil {
		return nil, fmt.Errorf("adagrad state not yet allocated")
	}
	return a.gt.Bytes(), nil
}

func (a *adagrad) setStateBytes(name string, payload []byte) error {
	if name != "adagrad_gt" {
		return fmt.Errorf("adagrad has no state item %q", name)
	}
	n := len(payload) / tensor.Float32.Size()
	if a.gt == nil {
		a.gt = tensor.New(n, tensor.Float32)
	} else if a.gt.Len() != n {
		return fmt.Errorf("loaded gt has %d elements, accumulator holds %d", n, a.gt.Len())
	}
	return a.gt.SetBytes(payload)
}

func sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}
