// Package optim implements the parameter-update engine: per-shard
// optimizers (SGD, Adagrad, Adam), global-norm gradient clipping,
// exponential parameter smoothing, and a shard-count-agnostic
// checkpoint protocol for accumulator state.
//
// One Optimizer instance is bound to one compute shard and owns that
// shard's accumulator buffers exclusively. The training driver calls
// Update once per step and fires the train.Observer lifecycle hooks to
// keep the optimizer's view of the learning rate and step counter in
// sync with its own.
//
// Example usage:
//
//	opt, err := optim.New(optim.Config{
//	    Algorithm: "adam",
//	    LearnRate: 0.0003,
//	    Precision: []string{"float32", "float32"},
//	})
//	if err != nil { ... }
//
//	state.Register(opt)
//	for batch := range batches {
//	    grads := backprop(params, batch)
//	    opt.Update(params, grads, batch.Words, 1)
//	    state.Batches++
//	}
package optim

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/ember-ml/ember/internal/checkpoint"
	"github.com/ember-ml/ember/internal/parallel"
	"github.com/ember-ml/ember/internal/tensor"
)

// MBSizeNotProvided marks an Update call where the caller has no
// minibatch word count; automatic rescaling is skipped for that call.
const MBSizeNotProvided = -1

// rule is one concrete update algorithm. The set of rules is closed:
// the factory selects one at construction and it is never replaced.
type rule interface {
	// step applies one per-coordinate update to params. eta is the
	// effective learning rate (already rescaled for minibatch size),
	// ratio the actual/reference minibatch ratio (1 when rescaling is
	// off), and t the step counter after this step's increment.
	step(params, grads []float32, eta float32, ratio float64, t int64, par parallel.Config)

	// resetStats clears the accumulator state.
	resetStats()

	// onLoaded rebuilds derived scalar state after the driver restored
	// its step counter from a checkpoint.
	onLoaded(batches int64)

	// setParams overrides hyper-parameters positionally.
	setParams(vals []float32)

	// stateNames lists the checkpoint items this rule exchanges, in a
	// fixed order. Empty for stateless rules.
	stateNames() []string

	// stateBytes returns the raw payload of one named accumulator.
	stateBytes(name string) ([]byte, error)

	// setStateBytes overwrites one named accumulator, allocating it to
	// fit the payload if needed.
	setStateBytes(name string, payload []byte) error

	name() string
}

// Optimizer orchestrates one shard's update step: cost-scale undo,
// precision casting, minibatch rescaling, clipping, the rule-specific
// update, and smoothing. It implements train.Observer.
type Optimizer struct {
	rule rule

	eta         float32
	refMBWords  int
	batchesSeen int64

	storageType tensor.DataType
	computeType tensor.DataType
	castEnabled bool

	clipper   *Clipper
	smoothing *ExponentialSmoothing
	par       parallel.Config

	// Compute-precision copies used when casting is enabled. The master
	// buffer holds the authoritative parameter values; the storage
	// buffer the caller owns is refreshed from it after every step.
	master      *tensor.Buffer
	gradScratch *tensor.Buffer

	// Number of elements in this shard, fixed on first use.
	size int
}

// Update performs one optimization step on this shard's parameter and
// gradient buffers, mutating params in place. mbSize is the minibatch
// word count driving this step, or MBSizeNotProvided. costScaleFactor
// undoes loss upscaling applied to avoid underflow in reduced
// precision.
//
// Returns the effective scalar learning rate actually applied, for
// logging.
//
// The gradient buffer may be rescaled in place and is invalid after the
// call. Buffer length or precision mismatches are programming errors
// and panic.
func (o *Optimizer) Update(params, grads *tensor.Buffer, mbSize int, costScaleFactor float32) float32 {
	if params.Len() != grads.Len() {
		panic(fmt.Sprintf("params have %d elements, grads %d", params.Len(), grads.Len()))
	}
	if params.DType() != o.storageType {
		panic(fmt.Sprintf("params are %s, optimizer stores %s", params.DType(), o.storageType))
	}
	if o.size == 0 {
		o.size = params.Len()
	} else if o.size != params.Len() {
		panic(fmt.Sprintf("shard size changed from %d to %d", o.size, params.Len()))
	}

	p, g := o.computeViews(params, grads)

	if costScaleFactor != 1 {
		blas32.Scal(1/costScaleFactor, blas32.Vector{N: len(g), Inc: 1, Data: g})
	}

	// Effective learning rate under automatic minibatch-size rescaling.
	// Requires the loss to be a sum over the batch, not a mean; that is
	// the caller's contract.
	eta := o.eta
	ratio := 1.0
	if o.refMBWords != 0 && mbSize != MBSizeNotProvided {
		ratio = float64(mbSize) / float64(o.refMBWords)
		eta = float32(float64(eta) * ratio)
	}

	o.clipper.Clip(g)

	o.batchesSeen++
	o.rule.step(p, g, eta, ratio, o.batchesSeen, o.par)

	if o.smoothing != nil {
		o.smoothing.UpdateAvg(p, o.batchesSeen, o.par)
	}

	if o.castEnabled {
		params.CastFrom(o.master)
	}
	return eta
}

// computeViews returns float32 slices for the rule kernels. Without
// casting these alias the caller's buffers directly; with casting they
// are the persistent master copy and a per-step gradient scratch.
func (o *Optimizer) computeViews(params, grads *tensor.Buffer) (p, g []float32) {
	if !o.castEnabled {
		return params.AsFloat32(), grads.AsFloat32()
	}
	if o.master == nil {
		o.master = tensor.New(params.Len(), o.computeType)
		o.master.CastFrom(params)
		o.gradScratch = tensor.New(params.Len(), o.computeType)
	}
	o.gradScratch.CastFrom(grads)
	return o.master.AsFloat32(), o.gradScratch.AsFloat32()
}

// SwapWithSmoothed exchanges the live parameters of shard i of n inside
// params with this optimizer's smoothed shadow. The exchange is
// symmetric: calling it twice restores the original state. It is a
// no-op when swapAvg is false, smoothing is disabled, or no step has
// run yet.
func (o *Optimizer) SwapWithSmoothed(params *tensor.Buffer, i, n int, swapAvg bool) {
	if !swapAvg || o.smoothing == nil || o.smoothing.avg == nil {
		return
	}
	begin, end := checkpoint.ShardRange(params.Len(), i, n)
	shard := params.Slice(begin, end)

	if o.castEnabled {
		// The master copy is authoritative; swap it with the shadow and
		// refresh the storage-precision view. Lossless both ways.
		o.master, o.smoothing.avg = o.smoothing.avg, o.master
		shard.CastFrom(o.master)
		return
	}

	live := shard.AsFloat32()
	avg := o.smoothing.avg.AsFloat32()
	if len(live) != len(avg) {
		panic(fmt.Sprintf("smoothed shadow has %d elements, shard %d", len(avg), len(live)))
	}
	for k := range live {
		live[k], avg[k] = avg[k], live[k]
	}
}

// SetParams overrides the active rule's hyper-parameters positionally;
// the order is rule-specific. Only supplied positions override
// defaults.
func (o *Optimizer) SetParams(vals []float32) { o.rule.setParams(vals) }

// Algorithm returns the name of the active update rule.
func (o *Optimizer) Algorithm() string { return o.rule.name() }

// Eta returns the optimizer's current base learning rate.
func (o *Optimizer) Eta() float32 { return o.eta }

// BatchesSeen returns the number of update steps applied so far.
func (o *Optimizer) BatchesSeen() int64 { return o.batchesSeen }
