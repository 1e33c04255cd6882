// Copyright 2026 Ember ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the parameter-update engine: SGD, Adagrad and
// Adam update rules with gradient clipping, exponential parameter
// smoothing, mixed-precision storage and sharded checkpointing.
//
// # Basic Usage
//
//	import (
//	    "github.com/ember-ml/ember/optim"
//	    "github.com/ember-ml/ember/tensor"
//	    "github.com/ember-ml/ember/train"
//	)
//
//	func main() {
//	    opt, err := optim.New(optim.Config{
//	        Algorithm: "adam",
//	        LearnRate: 0.0003,
//	        Precision: []string{"float32", "float32"},
//	        ClipNorm:  1,
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    state := &train.State{Eta: 0.0003}
//	    state.Register(opt)
//
//	    for batch := range batches {
//	        grads := backprop(params, batch)
//	        opt.Update(params, grads, batch.Words, 1)
//	        state.Batches++
//	    }
//	}
//
// # Sharded Training
//
// With multiple shards, each optimizer owns one contiguous slice of the
// parameter vector:
//
//	opts, _ := optim.NewGroup(cfg, shards)
//	for i, o := range opts {
//	    begin, end := checkpoint.ShardRange(params.Len(), i, shards)
//	    o.Update(params.Slice(begin, end), grads.Slice(begin, end), words, 1)
//	}
//
// Accumulator state saved with Save can later be restored with Load
// under a different shard count; checkpoints carry logical tensors, not
// shard layouts.
//
// # Mixed Precision
//
// With Precision set to [float16, float32] the caller's buffers hold
// half-precision values while the optimizer maintains a full-precision
// master copy, so small updates are not lost to storage rounding.
package optim
