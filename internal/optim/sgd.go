package optim

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/ember-ml/ember/internal/parallel"
)

// sgd is plain stochastic gradient descent:
//
//	params[i] -= eta * grads[i]
//
// It carries no accumulator state; its checkpoint protocol is the
// uniform one with zero items.
type sgd struct{}

func newSgd() *sgd { return &sgd{} }

func (s *sgd) name() string { return "sgd" }

func (s *sgd) step(params, grads []float32, eta float32, _ float64, _ int64, _ parallel.Config) {
	blas32.Axpy(-eta,
		blas32.Vector{N: len(grads), Inc: 1, Data: grads},
		blas32.Vector{N: len(params), Inc: 1, Data: params})
}

func (s *sgd) resetStats() {}

func (s *sgd) onLoaded(int64) {}

// setParams is a no-op: SGD has no tunable hyper-parameters beyond eta.
func (s *sgd) setParams([]float32) {}

func (s *sgd) stateNames() []string { return nil }

func (s *sgd) stateBytes(name string) ([]byte, error) {
	return nil, fmt.Errorf("sgd has no state item %q", name)
}

func (s *sgd) setStateBytes(name string, _ []byte) error {
	return fmt.Errorf("sgd has no state item %q", name)
}
