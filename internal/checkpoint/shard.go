package checkpoint

import (
	"fmt"

	"github.com/ember-ml/ember/internal/tensor"
)

// ShardRange returns the element range [begin, end) that shard i of n
// owns within a vector of total elements. All shards except possibly
// the last hold ceil(total/n) elements, so the partition for a given
// (total, n) is a pure function the save and load sides agree on
// without exchanging layout metadata.
func ShardRange(total, i, n int) (begin, end int) {
	if n <= 0 || i < 0 || i >= n {
		panic(fmt.Sprintf("shard %d of %d", i, n))
	}
	per := (total + n - 1) / n
	begin = min(i*per, total)
	end = min(begin+per, total)
	return begin, end
}

// ShardSource yields the serialized accumulator payload of one local
// shard during a save. Implemented by the optimizer group.
type ShardSource interface {
	ReadShard(shard int) ([]byte, error)
}

// ShardSink consumes the byte range mapped onto one local shard during
// a load. Implemented by the optimizer group.
type ShardSink interface {
	WriteShard(shard int, payload []byte) error
}

// Gather collects per-shard payloads into one shard-count-agnostic
// item of total elements. Each shard must supply exactly the bytes its
// range covers; anything else is a hard error.
func Gather(name string, dtype tensor.DataType, total, shards int, src ShardSource) (Item, error) {
	it := Item{
		Name:  name,
		DType: dtype,
		Size:  int64(total),
		Data:  make([]byte, total*dtype.Size()),
	}
	sz := dtype.Size()
	for i := 0; i < shards; i++ {
		begin, end := ShardRange(total, i, shards)
		payload, err := src.ReadShard(i)
		if err != nil {
			return Item{}, fmt.Errorf("gather %q shard %d: %w", name, i, err)
		}
		if len(payload) != (end-begin)*sz {
			return Item{}, fmt.Errorf("gather %q shard %d: got %d bytes, want %d",
				name, i, len(payload), (end-begin)*sz)
		}
		copy(it.Data[begin*sz:end*sz], payload)
	}
	return it, nil
}

// Scatter splits an item across the current shard layout, which may
// differ from the layout it was gathered under. Each shard receives the
// byte range its index maps onto.
func Scatter(it Item, shards int, sink ShardSink) error {
	if err := it.Validate(); err != nil {
		return err
	}
	sz := it.DType.Size()
	total := int(it.Size)
	for i := 0; i < shards; i++ {
		begin, end := ShardRange(total, i, shards)
		if err := sink.WriteShard(i, it.Data[begin*sz:end*sz]); err != nil {
			return fmt.Errorf("scatter %q shard %d: %w", it.Name, i, err)
		}
	}
	return nil
}
