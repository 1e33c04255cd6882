package optim

import (
	"github.com/ember-ml/ember/internal/parallel"
	"github.com/ember-ml/ember/internal/tensor"
)

// ExponentialSmoothing maintains a decayed moving average of the
// parameters, used to evaluate with more stable weights than the live
// ones. The shadow buffer is owned by the same optimizer instance that
// owns the live parameters and is advanced strictly after the live
// update of each step.
type ExponentialSmoothing struct {
	decay float64
	avg   *tensor.Buffer // Compute precision, lazily sized to the shard.
}

// UpdateAvg advances the shadow by one decayed-average step:
//
//	avg += r * (params - avg)
//
// where r = max(1-decay, 1/(t+1)). The 1/(t+1) floor makes the early
// shadow a running mean instead of a copy of the noisy first steps; it
// fades out once t exceeds the decay horizon.
func (s *ExponentialSmoothing) UpdateAvg(params []float32, t int64, par parallel.Config) {
	if s.avg == nil {
		s.avg = tensor.FromFloat32(params, tensor.Float32)
		return
	}
	r := 1 - s.decay
	if inv := 1 / float64(t+1); inv > r {
		r = inv
	}
	rate := float32(r)

	avg := s.avg.AsFloat32()
	parallel.ForChunks(len(params), func(begin, end int) {
		for i := begin; i < end; i++ {
			avg[i] += rate * (params[i] - avg[i])
		}
	}, par)
}
