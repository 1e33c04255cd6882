// Copyright 2026 Ember ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/ember-ml/ember/internal/checkpoint"
	"github.com/ember-ml/ember/internal/optim"
)

// MBSizeNotProvided marks an Update call without a minibatch word
// count; automatic rescaling is skipped for that call.
const MBSizeNotProvided = optim.MBSizeNotProvided

// Optimizer applies one shard's update step: cost-scale undo, precision
// casting, minibatch rescaling, clipping, the rule-specific update and
// smoothing. It implements train.Observer.
type Optimizer = optim.Optimizer

// Config selects and parameterizes an update rule.
type Config = optim.Config

// Notice emits a message at most once per process.
type Notice = optim.Notice

// Clipper rescales a gradient in place when its global L2 norm exceeds
// a threshold.
type Clipper = optim.Clipper

// ExponentialSmoothing maintains a decayed running average of the
// parameters.
type ExponentialSmoothing = optim.ExponentialSmoothing

// New constructs the configured update rule wrapped in an Optimizer.
//
// Example:
//
//	opt, err := optim.New(optim.Config{
//	    Algorithm: "adam",
//	    LearnRate: 0.0003,
//	    Precision: []string{"float32", "float32"},
//	})
func New(cfg Config) (*Optimizer, error) {
	return optim.New(cfg)
}

// NewGroup constructs one optimizer per shard from the same config.
func NewGroup(cfg Config, shards int) ([]*Optimizer, error) {
	return optim.NewGroup(cfg, shards)
}

// Save appends the accumulator state of a sharded optimizer group to
// items, one item per accumulator tensor gathered across shards.
func Save(items *[]checkpoint.Item, opts []*Optimizer) error {
	return optim.Save(items, opts)
}

// Load redistributes saved accumulator state across the current
// optimizer group, which may have a different shard count than the one
// that saved it.
func Load(items []checkpoint.Item, opts []*Optimizer) error {
	return optim.Load(items, opts)
}
