package optim

import (
	"fmt"

	"github.com/ember-ml/ember/internal/checkpoint"
	"github.com/ember-ml/ember/internal/tensor"
)

// The checkpoint protocol is uniform across rules: a save appends one
// item per accumulator tensor (zero for SGD, gt for Adagrad, mt and vt
// for Adam), each holding the full logical vector gathered across the
// group's shards. Because items carry no shard layout, a later load may
// redistribute them across a different number of shards; each optimizer
// only consumes the byte range mapped onto its index.

// groupState adapts an optimizer group to the checkpoint shard
// interfaces for one named accumulator.
type groupState struct {
	opts []*Optimizer
	name string
}

func (g groupState) ReadShard(shard int) ([]byte, error) {
	return g.opts[shard].rule.stateBytes(g.name)
}

func (g groupState) WriteShard(shard int, payload []byte) error {
	return g.opts[shard].rule.setStateBytes(g.name, payload)
}

// Save appends the accumulator state of a sharded optimizer group to
// items. All optimizers must run the same rule; opts[i] is bound to
// shard i of len(opts), partitioned by checkpoint.ShardRange.
func Save(items *[]checkpoint.Item, opts []*Optimizer) error {
	if len(opts) == 0 {
		return fmt.Errorf("empty optimizer group")
	}
	names := opts[0].rule.stateNames()
	if len(names) == 0 {
		return nil // Stateless rule: uniform protocol with zero items.
	}

	total := 0
	for _, o := range opts {
		if o.size == 0 {
			return fmt.Errorf("optimizer state not initialized; nothing to save")
		}
		total += o.size
	}

	for _, name := range names {
		item, err := checkpoint.Gather(name, tensor.Float32, total, len(opts), groupState{opts, name})
		if err != nil {
			return err
		}
		*items = append(*items, item)
	}
	return nil
}

// Load redistributes saved accumulator state across the current
// optimizer group. The item count and names must match the active rule
// exactly, and item shapes must agree with any accumulators already
// allocated; anything truncated or mis-shaped is rejected rather than
// coerced.
func Load(items []checkpoint.Item, opts []*Optimizer) error {
	if len(opts) == 0 {
		return fmt.Errorf("empty optimizer group")
	}
	names := opts[0].rule.stateNames()
	if len(items) != len(names) {
		return fmt.Errorf("%s expects %d state items, checkpoint has %d",
			opts[0].Algorithm(), len(names), len(items))
	}

	byName := make(map[string]checkpoint.Item, len(items))
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
		if it.DType != tensor.Float32 {
			return fmt.Errorf("item %q has precision %s, accumulators are float32", it.Name, it.DType)
		}
		byName[it.Name] = it
	}

	for _, name := range names {
		it, ok := byName[name]
		if !ok {
			return fmt.Errorf("checkpoint is missing state item %q", name)
		}
		if err := checkpoint.Scatter(it, len(opts), groupState{opts, name}); err != nil {
			return err
		}
	}

	// Adopt the loaded partition so a later Update validates against it.
	if len(names) > 0 {
		total := int(byName[names[0]].Size)
		for i, o := range opts {
			begin, end := checkpoint.ShardRange(total, i, len(opts))
			if o.size != 0 && o.size != end-begin {
				return fmt.Errorf("shard %d holds %d elements, checkpoint maps %d onto it",
					i, o.size, end-begin)
			}
			o.size = end - begin
		}
	}
	return nil
}
