// Package train holds the training-loop state shared between the driver
// and its observers.
//
// The State value is owned by the training driver. Optimizers (and any
// other observers) never mutate it; they read the learning rate and
// step counter from it when the driver fires a lifecycle event.
package train

// State is the driver-owned view of training progress.
type State struct {
	Eta     float32 // Current learning rate.
	Batches int64   // Update steps seen so far.

	// Reset is a one-shot signal: the driver raises it when prior
	// optimizer statistics are no longer valid for the new regime
	// (for example after a learning-rate anneal), and clears it once
	// the observers have been notified.
	Reset bool

	observers []Observer
}

// Observer is the lifecycle contract between the training driver and a
// component that tracks its progress. The driver fires each hook at the
// matching point of the loop; observers copy whatever they need out of
// the state.
type Observer interface {
	// Init is called once before the first update step.
	Init(*State)
	// ActAfterLoaded is called after training state was restored from
	// a checkpoint.
	ActAfterLoaded(*State)
	// ActAfterEpoch is called at every epoch boundary.
	ActAfterEpoch(*State)
	// ActAfterBatches is called after every batch-count milestone.
	ActAfterBatches(*State)
	// ActAfterStalled is called when validation has stalled.
	ActAfterStalled(*State)
}

// Register adds an observer and immediately initializes it from the
// current state.
func (s *State) Register(o Observer) {
	s.observers = append(s.observers, o)
	o.Init(s)
}

// NotifyLoaded fires ActAfterLoaded on all observers.
func (s *State) NotifyLoaded() {
	for _, o := range s.observers {
		o.ActAfterLoaded(s)
	}
}

// NotifyEpoch fires ActAfterEpoch on all observers, then consumes the
// reset signal.
func (s *State) NotifyEpoch() {
	for _, o := range s.observers {
		o.ActAfterEpoch(s)
	}
	s.Reset = false
}

// NotifyBatches fires ActAfterBatches on all observers, then consumes
// the reset signal.
func (s *State) NotifyBatches() {
	for _, o := range s.observers {
		o.ActAfterBatches(s)
	}
	s.Reset = false
}

// NotifyStalled fires ActAfterStalled on all observers, then consumes
// the reset signal.
func (s *State) NotifyStalled() {
	for _, o := range s.observers {
		o.ActAfterStalled(s)
	}
	s.Reset = false
}
