// Package checkpoint implements the state-transfer layer of the update
// engine: named tensor blobs, shard-count-agnostic gather/scatter, and
// a compact on-disk store.
package checkpoint

import (
	"fmt"

	"github.com/ember-ml/ember/internal/tensor"
)

// Item is one opaque named tensor blob exchanged at a checkpoint
// boundary. Its logical size is the full vector length; the physical
// shard partition it was captured under is deliberately not recorded,
// which is what allows redistribution across a different shard count.
type Item struct {
	Name  string
	DType tensor.DataType
	Size  int64 // Element count of the full logical vector.
	Data  []byte
}

// Validate checks internal consistency of the item.
func (it Item) Validate() error {
	if it.Name == "" {
		return fmt.Errorf("checkpoint item has no name")
	}
	if it.Size < 0 {
		return fmt.Errorf("item %q: negative size %d", it.Name, it.Size)
	}
	if want := it.Size * int64(it.DType.Size()); int64(len(it.Data)) != want {
		return fmt.Errorf("item %q: %d elements of %s need %d bytes, have %d",
			it.Name, it.Size, it.DType, want, len(it.Data))
	}
	return nil
}
