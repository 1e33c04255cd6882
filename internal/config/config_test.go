package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFull(t *testing.T) {
	doc := `
optimizer: adagrad
learn-rate: 0.01
optimizer-params: [1.0e-6]
clip-norm: 5
exponential-smoothing: 0.9999
mini-batch-words-ref: 25000000
precision: [float16, float32]
shards: 4
`
	cfg, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "adagrad", cfg.Optimizer)
	assert.Equal(t, float32(0.01), cfg.LearnRate)
	assert.Equal(t, []float32{1e-6}, cfg.OptimizerParams)
	assert.Equal(t, float32(5), cfg.ClipNorm)
	assert.Equal(t, 0.9999, cfg.ExponentialSmoothing)
	assert.Equal(t, 25000000, cfg.MiniBatchWordsRef)
	assert.Equal(t, []string{"float16", "float32"}, cfg.Precision)
	assert.Equal(t, 4, cfg.Shards)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader("learn-rate: 0.5\n"))
	require.NoError(t, err)

	assert.Equal(t, float32(0.5), cfg.LearnRate)
	assert.Equal(t, "adam", cfg.Optimizer)
	assert.Equal(t, []string{"float32", "float32"}, cfg.Precision)
	assert.Equal(t, 1, cfg.Shards)
	assert.Zero(t, cfg.ClipNorm)
	assert.Zero(t, cfg.ExponentialSmoothing)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseUnknownKey(t *testing.T) {
	_, err := Parse(strings.NewReader("learning-rate: 0.5\n"))
	assert.Error(t, err)
}

func TestParseBadShards(t *testing.T) {
	_, err := Parse(strings.NewReader("shards: 0\n"))
	assert.ErrorContains(t, err, "shards must be positive")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.yml")
	require.NoError(t, os.WriteFile(path, []byte("optimizer: sgd\nlearn-rate: 0.1\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sgd", cfg.Optimizer)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestOptimConfig(t *testing.T) {
	cfg, err := Parse(strings.NewReader("optimizer: adam\nlearn-rate: 0.0003\nclip-norm: 1\n"))
	require.NoError(t, err)

	oc := cfg.OptimConfig()
	assert.Equal(t, "adam", oc.Algorithm)
	assert.Equal(t, float32(0.0003), oc.LearnRate)
	assert.Equal(t, float32(1), oc.ClipNorm)
	assert.Equal(t, []string{"float32", "float32"}, oc.Precision)
}
