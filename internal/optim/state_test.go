package optim

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ember-ml/ember/internal/checkpoint"
	"github.com/ember-ml/ember/internal/tensor"
)

// stepGroup runs one update step on each shard of a group, slicing the
// shared parameter and gradient vectors by checkpoint.ShardRange.
func stepGroup(opts []*Optimizer, params, grads *tensor.Buffer) {
	n := len(opts)
	for i, o := range opts {
		begin, end := checkpoint.ShardRange(params.Len(), i, n)
		o.Update(params.Slice(begin, end), grads.Slice(begin, end).Clone(), MBSizeNotProvided, 1)
	}
}

func TestStateRoundTrip(t *testing.T) {
	const total = 10
	cfg := f32Config("adagrad", 0.1)

	src, err := NewGroup(cfg, 2)
	require.NoError(t, err)

	params := tensor.New(total, tensor.Float32)
	grads := tensor.New(total, tensor.Float32)
	for i := 0; i < total; i++ {
		params.Set(i, float32(i)*0.5)
		grads.Set(i, float32(i)-4.5)
	}
	stepGroup(src, params, grads)
	stepGroup(src, params, grads)

	var items []checkpoint.Item
	require.NoError(t, Save(&items, src))
	require.Len(t, items, 1)
	assert.Equal(t, "adagrad_gt", items[0].Name)
	assert.Equal(t, int64(total), items[0].Size)

	dst, err := NewGroup(cfg, 2)
	require.NoError(t, err)
	require.NoError(t, Load(items, dst))

	for i := range src {
		assert.Equal(t, src[i].rule.(*adagrad).gt.Bytes(), dst[i].rule.(*adagrad).gt.Bytes(),
			"shard %d accumulator differs after round trip", i)
	}

	// Both groups must now produce bit-identical steps.
	pSrc, pDst := params.Clone(), params.Clone()
	stepGroup(src, pSrc, grads)
	stepGroup(dst, pDst, grads)
	assert.Equal(t, pSrc.Bytes(), pDst.Bytes())
}

func TestStateShardCountIndependence(t *testing.T) {
	const total = 10
	cfg := f32Config("adam", 0.01)

	src, err := NewGroup(cfg, 2)
	require.NoError(t, err)

	params := tensor.New(total, tensor.Float32)
	grads := tensor.New(total, tensor.Float32)
	for i := 0; i < total; i++ {
		params.Set(i, 1)
		grads.Set(i, float32(i+1)*0.1)
	}
	stepGroup(src, params, grads)

	var items []checkpoint.Item
	require.NoError(t, Save(&items, src))
	require.Len(t, items, 2)

	// Reload onto three shards instead of two.
	dst, err := NewGroup(cfg, 3)
	require.NoError(t, err)
	require.NoError(t, Load(items, dst))

	for _, name := range []string{"adam_mt", "adam_vt"} {
		var want, got []byte
		for _, o := range src {
			b, err := o.rule.stateBytes(name)
			require.NoError(t, err)
			want = append(want, b...)
		}
		for _, o := range dst {
			b, err := o.rule.stateBytes(name)
			require.NoError(t, err)
			got = append(got, b...)
		}
		assert.Equal(t, want, got, "concatenated %s differs across repartition", name)
	}

	// The adopted partition must follow ShardRange.
	for i, o := range dst {
		begin, end := checkpoint.ShardRange(total, i, 3)
		assert.Equal(t, end-begin, o.size, "shard %d size", i)
	}
}

func TestStateStatelessRule(t *testing.T) {
	src, err := NewGroup(f32Config("sgd", 0.1), 2)
	require.NoError(t, err)

	params := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Float32)
	grads := tensor.FromFloat32([]float32{1, 1, 1, 1}, tensor.Float32)
	stepGroup(src, params, grads)

	var items []checkpoint.Item
	require.NoError(t, Save(&items, src))
	assert.Empty(t, items)

	dst, err := NewGroup(f32Config("sgd", 0.1), 3)
	require.NoError(t, err)
	require.NoError(t, Load(nil, dst))
}

func TestStateLoadRejections(t *testing.T) {
	mkItem := func(name string, dtype tensor.DataType, size int) checkpoint.Item {
		return checkpoint.Item{
			Name:  name,
			DType: dtype,
			Size:  int64(size),
			Data:  make([]byte, size*dtype.Size()),
		}
	}

	adamGroup := func() []*Optimizer {
		g, err := NewGroup(f32Config("adam", 0.01), 2)
		require.NoError(t, err)
		return g
	}

	// Wrong item count for the active rule.
	err := Load([]checkpoint.Item{mkItem("adam_mt", tensor.Float32, 4)}, adamGroup())
	assert.ErrorContains(t, err, "expects 2 state items")

	// Right count, wrong names.
	err = Load([]checkpoint.Item{
		mkItem("adam_mt", tensor.Float32, 4),
		mkItem("adagrad_gt", tensor.Float32, 4),
	}, adamGroup())
	assert.ErrorContains(t, err, "missing state item")

	// Accumulators are always float32 regardless of storage precision.
	err = Load([]checkpoint.Item{
		mkItem("adam_mt", tensor.Float16, 4),
		mkItem("adam_vt", tensor.Float16, 4),
	}, adamGroup())
	assert.ErrorContains(t, err, "accumulators are float32")

	// Payload shorter than the declared element count.
	bad := mkItem("adam_mt", tensor.Float32, 4)
	bad.Data = bad.Data[:8]
	err = Load([]checkpoint.Item{bad, mkItem("adam_vt", tensor.Float32, 4)}, adamGroup())
	assert.Error(t, err)

	// Size conflicting with an already-allocated accumulator.
	warm := adamGroup()
	params := tensor.FromFloat32([]float32{1, 2, 3, 4, 5, 6}, tensor.Float32)
	grads := tensor.FromFloat32([]float32{1, 1, 1, 1, 1, 1}, tensor.Float32)
	stepGroup(warm, params, grads)
	err = Load([]checkpoint.Item{
		mkItem("adam_mt", tensor.Float32, 4),
		mkItem("adam_vt", tensor.Float32, 4),
	}, warm)
	assert.Error(t, err)
}

// TestStateThroughStore exercises the full path: gather to items, write
// a .ember file, read it back, scatter onto a fresh group.
func TestStateThroughStore(t *testing.T) {
	cfg := f32Config("adagrad", 0.05)
	src, err := NewGroup(cfg, 3)
	require.NoError(t, err)

	const total = 7
	params := tensor.New(total, tensor.Float32)
	grads := tensor.New(total, tensor.Float32)
	for i := 0; i < total; i++ {
		params.Set(i, float32(i))
		grads.Set(i, 0.25*float32(i+1))
	}
	stepGroup(src, params, grads)

	var items []checkpoint.Item
	require.NoError(t, Save(&items, src))

	path := filepath.Join(t.TempDir(), "optim.ember")
	require.NoError(t, checkpoint.Save(path, items, map[string]string{"algorithm": "adagrad"}))

	loaded, header, err := checkpoint.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "adagrad", header.Metadata["algorithm"])

	dst, err := NewGroup(cfg, 2)
	require.NoError(t, err)
	require.NoError(t, Load(loaded, dst))

	var want, got []byte
	for _, o := range src {
		b, err := o.rule.stateBytes("adagrad_gt")
		require.NoError(t, err)
		want = append(want, b...)
	}
	for _, o := range dst {
		b, err := o.rule.stateBytes("adagrad_gt")
		require.NoError(t, err)
		got = append(got, b...)
	}
	assert.Equal(t, want, got)
}
