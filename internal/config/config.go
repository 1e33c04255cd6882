// Package config reads training configuration files. The on-disk format
// is YAML with the flag-style key names commonly used for optimizer
// settings (learn-rate, clip-norm, exponential-smoothing).
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ember-ml/ember/internal/optim"
)

// Training holds the update-engine portion of a training configuration.
type Training struct {
	// Optimizer names the update rule: "sgd", "adagrad" or "adam".
	Optimizer string `yaml:"optimizer"`

	// LearnRate is the base learning rate.
	LearnRate float32 `yaml:"learn-rate"`

	// OptimizerParams positionally overrides rule hyper-parameters.
	OptimizerParams []float32 `yaml:"optimizer-params"`

	// ClipNorm caps the global gradient norm. Zero disables clipping.
	ClipNorm float32 `yaml:"clip-norm"`

	// ExponentialSmoothing is the parameter-averaging decay factor.
	// Zero disables smoothing.
	ExponentialSmoothing float64 `yaml:"exponential-smoothing"`

	// MiniBatchWordsRef is the reference minibatch word count for
	// automatic hyper-parameter rescaling. Zero disables rescaling.
	MiniBatchWordsRef int `yaml:"mini-batch-words-ref"`

	// Precision is the [storage, compute] type pair.
	Precision []string `yaml:"precision"`

	// Shards is the number of parameter shards, one optimizer each.
	Shards int `yaml:"shards"`
}

// Default returns the configuration used when a key is absent from the
// file.
func Default() Training {
	return Training{
		Optimizer: "adam",
		LearnRate: 0.0001,
		Precision: []string{"float32", "float32"},
		Shards:    1,
	}
}

// Load reads and decodes a YAML training configuration. Missing keys
// keep their Default values; unknown keys are rejected.
func Load(path string) (Training, error) {
	//nolint:gosec // G304: the path comes from the caller's command line
	file, err := os.Open(path)
	if err != nil {
		return Training{}, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg, err := Parse(file)
	if err != nil {
		return Training{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML training configuration from r on top of the
// defaults.
func Parse(r io.Reader) (Training, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if err == io.EOF {
			return cfg, nil // Empty file: all defaults.
		}
		return Training{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Shards <= 0 {
		return Training{}, fmt.Errorf("shards must be positive, got %d", cfg.Shards)
	}
	return cfg, nil
}

// OptimConfig maps the file keys onto an optimizer configuration.
// Semantic validation (algorithm names, precision pairs) happens in
// optim.New.
func (t Training) OptimConfig() optim.Config {
	return optim.Config{
		Algorithm:      t.Optimizer,
		LearnRate:      t.LearnRate,
		RefMBWords:     t.MiniBatchWordsRef,
		Precision:      t.Precision,
		ClipNorm:       t.ClipNorm,
		SmoothingDecay: t.ExponentialSmoothing,
		Params:         t.OptimizerParams,
	}
}
