// Copyright 2026 Ember ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train holds the training-loop state shared between the
// driver and its observers.
package train

import (
	"github.com/ember-ml/ember/internal/train"
)

// State is the driver-owned view of training progress: the current
// learning rate, the update-step counter and the one-shot reset signal.
type State = train.State

// Observer is the lifecycle contract between the training driver and a
// component that tracks its progress, such as an Optimizer.
type Observer = train.Observer
