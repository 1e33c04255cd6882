package optim

import "github.com/ember-ml/ember/internal/train"

// The training driver owns the learning rate and step counter inside
// train.State; the hooks below copy them into the optimizer whenever
// the driver fires a lifecycle event. The batch, epoch and stall events
// additionally honor the driver's reset signal by clearing accumulator
// statistics that are no longer valid for the new regime.

var _ train.Observer = (*Optimizer)(nil)

// Init implements train.Observer.
func (o *Optimizer) Init(s *train.State) {
	o.eta = s.Eta
	o.batchesSeen = s.Batches
}

// ActAfterLoaded implements train.Observer. Beyond syncing the scalar
// state it rebuilds step-derived accumulator scalars (Adam's bias
// correction) from the restored counter.
func (o *Optimizer) ActAfterLoaded(s *train.State) {
	o.eta = s.Eta
	o.batchesSeen = s.Batches
	o.rule.onLoaded(s.Batches)
}

// ActAfterEpoch implements train.Observer.
func (o *Optimizer) ActAfterEpoch(s *train.State) {
	o.eta = s.Eta
	o.batchesSeen = s.Batches
	if s.Reset {
		o.rule.resetStats()
	}
}

// ActAfterBatches implements train.Observer.
func (o *Optimizer) ActAfterBatches(s *train.State) {
	o.eta = s.Eta
	o.batchesSeen = s.Batches
	if s.Reset {
		o.rule.resetStats()
	}
}

// ActAfterStalled implements train.Observer.
func (o *Optimizer) ActAfterStalled(s *train.State) {
	o.eta = s.Eta
	o.batchesSeen = s.Batches
	if s.Reset {
		o.rule.resetStats()
	}
}
