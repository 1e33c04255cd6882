package optim

import (
	"fmt"
	"log"
	"sync"

	"github.com/ember-ml/ember/internal/parallel"
	"github.com/ember-ml/ember/internal/tensor"
)

// Config selects and parameterizes an update rule.
type Config struct {
	// Algorithm names the update rule: "sgd", "adagrad" or "adam".
	Algorithm string

	// LearnRate is the base learning rate eta. Must be non-negative.
	LearnRate float32

	// RefMBWords is the reference minibatch word count the
	// hyper-parameters were tuned for. When nonzero, Update rescales
	// them to the observed minibatch size. Zero disables rescaling.
	RefMBWords int

	// Precision is the [storage, compute] type pair. Both entries are
	// required; compute must be "float32".
	Precision []string

	// ClipNorm caps the global L2 norm of the gradient before the
	// update. Zero disables clipping.
	ClipNorm float32

	// SmoothingDecay enables exponential parameter smoothing with the
	// given decay factor (for example 0.9999). Zero disables smoothing.
	SmoothingDecay float64

	// Params positionally overrides rule hyper-parameters; the order is
	// rule-specific (see Sgd, Adagrad, Adam). Only supplied positions
	// override defaults.
	Params []float32

	// Notice, when set, receives one-shot construction notices such as
	// the automatic learning-rate adjustment announcement.
	Notice *Notice

	// Parallel overrides the kernel execution config. Nil uses
	// parallel.DefaultConfig.
	Parallel *parallel.Config
}

// Notice emits a message at most once per process. It replaces implicit
// module-level one-shot logging with an explicit flag the caller owns.
type Notice struct {
	Logger *log.Logger // Nil falls back to log.Default.

	once sync.Once
}

// Printf logs the message on the first call; later calls are ignored.
// A nil *Notice drops the message entirely.
func (n *Notice) Printf(format string, args ...any) {
	if n == nil {
		return
	}
	n.once.Do(func() {
		l := n.Logger
		if l == nil {
			l = log.Default()
		}
		l.Printf(format, args...)
	})
}

// New constructs the configured update rule wrapped in an Optimizer.
// Unknown algorithm names, negative learning rates and missing or
// unsupported precision pairs are construction errors: training cannot
// proceed with an ill-defined numeric contract.
func New(cfg Config) (*Optimizer, error) {
	if cfg.LearnRate < 0 {
		return nil, fmt.Errorf("learn-rate must be non-negative, got %g", cfg.LearnRate)
	}
	if len(cfg.Precision) < 2 {
		return nil, fmt.Errorf("precision needs a [storage, compute] type pair, got %d entries", len(cfg.Precision))
	}
	storageType, err := tensor.ParseDataType(cfg.Precision[0])
	if err != nil {
		return nil, fmt.Errorf("storage precision: %w", err)
	}
	computeType, err := tensor.ParseDataType(cfg.Precision[1])
	if err != nil {
		return nil, fmt.Errorf("compute precision: %w", err)
	}
	if computeType != tensor.Float32 {
		return nil, fmt.Errorf("compute precision must be float32, got %s", computeType)
	}

	var r rule
	switch cfg.Algorithm {
	case "sgd":
		r = newSgd()
	case "adagrad":
		r = newAdagrad()
	case "adam":
		r = newAdam()
	default:
		return nil, fmt.Errorf("unknown optimization algorithm %q", cfg.Algorithm)
	}
	r.setParams(cfg.Params)

	par := parallel.DefaultConfig()
	if cfg.Parallel != nil {
		par = *cfg.Parallel
	}

	o := &Optimizer{
		rule:        r,
		eta:         cfg.LearnRate,
		refMBWords:  cfg.RefMBWords,
		storageType: storageType,
		computeType: computeType,
		castEnabled: storageType != computeType,
		par:         par,
	}
	if cfg.ClipNorm > 0 {
		o.clipper = &Clipper{MaxNorm: cfg.ClipNorm}
	}
	if cfg.SmoothingDecay > 0 {
		o.smoothing = &ExponentialSmoothing{decay: cfg.SmoothingDecay}
	}

	if cfg.RefMBWords != 0 {
		cfg.Notice.Printf("[optim] learning rate gets automatically adjusted as if minibatch size was %d", cfg.RefMBWords)
	}
	return o, nil
}

// NewGroup constructs one optimizer per shard from the same config.
func NewGroup(cfg Config, shards int) ([]*Optimizer, error) {
	if shards <= 0 {
		return nil, fmt.Errorf("shard count must be positive, got %d", shards)
	}
	opts := make([]*Optimizer, shards)
	for i := range opts {
		o, err := New(cfg)
		if err != nil {
			return nil, err
		}
		opts[i] = o
	}
	return opts, nil
}
