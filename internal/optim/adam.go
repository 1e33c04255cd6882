package optim

import (
	"fmt"
	"math"

	"github.com/ember-ml/ember/internal/parallel"
	"github.com/ember-ml/ember/internal/tensor"
)

// adam keeps exponential moving averages of the gradient (first moment)
// and its square (second moment), corrects their zero-initialization
// bias, and scales each coordinate's step by the corrected moments:
//
//	mt[i]     = beta1*mt[i] + (1-beta1)*grads[i]
//	vt[i]     = beta2*vt[i] + (1-beta2)*grads[i]^2
//	params[i] -= eta * (mt[i]/denom1) / (sqrt(vt[i]/denom2) + eps)
//	           + eta * w * params[i]          // only when w != 0
//
// The bias-correction denominators follow the recursion
// denom = beta*denom + (1-beta), which after t steps with a constant
// beta equals 1 - beta^t. The decoupled weight-decay term w gives the
// AdamW variant; it acts on the parameters directly, not through the
// gradient.
//
// Under automatic minibatch-size rescaling the decay rates are adjusted
// as if the reference batch size were used: beta^(actual/ref), with eta
// already scaled linearly by the orchestration layer.
//
// Reference: Kingma & Ba, "Adam: A Method for Stochastic Optimization".
type adam struct {
	beta1 float32
	beta2 float32
	eps   float32
	w     float32

	// CPU-side running bias-correction accumulators, always in (0, 1]
	// once a step has run.
	denom1 float64
	denom2 float64

	mt *tensor.Buffer // First moment estimate.
	vt *tensor.Buffer // Second moment estimate.
}

func newAdam() *adam {
	return &adam{
		beta1: 0.9,
		beta2: 0.999,
		eps:   1e-8,
	}
}

func (a *adam) name() string { return "adam" }

func (a *adam) step(params, grads []float32, eta float32, ratio float64, _ int64, par parallel.Config) {
	if a.mt == nil {
		a.mt = tensor.New(len(params), tensor.Float32)
		a.vt = tensor.New(len(params), tensor.Float32)
	} else if a.mt.Len() != len(params) {
		panic(fmt.Sprintf("adam state has %d elements, params %d", a.mt.Len(), len(params)))
	}

	beta1, beta2 := a.beta1, a.beta2
	if ratio != 1 {
		beta1 = float32(math.Pow(float64(a.beta1), ratio))
		beta2 = float32(math.Pow(float64(a.beta2), ratio))
	}

	a.denom1 = float64(beta1)*a.denom1 + float64(1-beta1)
	a.denom2 = float64(beta2)*a.denom2 + float64(1-beta2)
	denom1 := float32(a.denom1)
	denom2 := float32(a.denom2)

	mt := a.mt.AsFloat32()
	vt := a.vt.AsFloat32()
	eps, w := a.eps, a.w

	parallel.ForChunks(len(params), func(begin, end int) {
		for i := begin; i < end; i++ {
			g := grads[i]
			mt[i] = beta1*mt[i] + (1-beta1)*g
			vt[i] = beta2*vt[i] + (1-beta2)*g*g

			update := (mt[i] / denom1) / (sqrt32(vt[i]/denom2) + eps)
			if w != 0 {
				update += w * params[i]
			}
			params[i] -= eta * update
		}
	}, par)
}

func (a *adam) resetStats() {
	if a.mt != nil {
		a.mt.Zero()
	}
	if a.vt != nil {
		a.vt.Zero()
	}
	a.denom1 = 0
	a.denom2 = 0
}

// onLoaded rebuilds the bias-correction accumulators from the restored
// step counter; the moment tensors themselves arrive through the
// checkpoint items.
func (a *adam) onLoaded(batches int64) {
	if batches <= 0 {
		a.denom1 = 0
		a.denom2 = 0
		return
	}
	t := float64(batches)
	a.denom1 = 1 - math.Pow(float64(a.beta1), t)
	a.denom2 = 1 - math.Pow(float64(a.beta2), t)
}

// setParams accepts [beta1, beta2, eps, w]; w is the decoupled
// weight-decay factor, disabled by default.
func (a *adam) setParams(vals []float32) {
	if len(vals) > 0 {
		a.beta1 = vals[0]
	}
	if len(vals) > 1 {
		a.beta2 = vals[1]
	}
	if len(vals) > 2 {
		a.eps = vals[2]
	}
	if len(vals) > 3 {
		a.w = vals[3]
	}
}

func (a *adam) stateNames() []string { return []string{"adam_mt", "adam_vt"} }

func (a *adam) stateBytes(name string) ([]byte, error) {
	buf, err := a.stateBuffer(name)
	if err != nil {
		return nil, err
	}
	if buf == nil {
		return nil, fmt.Errorf("adam state not yet allocated")
	}
	return buf.Bytes(), nil
}

func (a *adam) setStateBytes(name string, payload []byte) error {
	n := len(payload) / tensor.Float32.Size()
	if a.mt == nil {
		a.mt = tensor.New(n, tensor.Float32)
		a.vt = tensor.New(n, tensor.Float32)
	}
	buf, err := a.stateBuffer(name)
	if err != nil {
		return err
	}
	if buf.Len() != n {
		return fmt.Errorf("loaded %s has %d elements, accumulator holds %d", name, n, buf.Len())
	}
	return buf.SetBytes(payload)
}

func (a *adam) stateBuffer(name string) (*tensor.Buffer, error) {
	switch name {
	case "adam_mt":
		return a.mt, nil
	case "adam_vt":
		return a.vt, nil
	default:
		return nil, fmt.Errorf("adam has no state item %q", name)
	}
}
