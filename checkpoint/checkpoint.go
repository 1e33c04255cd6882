// Copyright 2026 Ember ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package checkpoint reads and writes .ember checkpoint files and
// provides the shard gather/scatter protocol used to save and restore
// state independently of the shard count.
package checkpoint

import (
	"github.com/ember-ml/ember/internal/checkpoint"
	"github.com/ember-ml/ember/internal/tensor"
)

// Sentinel errors returned by Load and ReadHeader.
var (
	ErrInvalidMagic       = checkpoint.ErrInvalidMagic
	ErrUnsupportedVersion = checkpoint.ErrUnsupportedVersion
	ErrHeaderTooLarge     = checkpoint.ErrHeaderTooLarge
	ErrChecksumMismatch   = checkpoint.ErrChecksumMismatch
	ErrTruncated          = checkpoint.ErrTruncated
)

// Item is one named logical tensor inside a checkpoint.
type Item = checkpoint.Item

// Header is the JSON metadata block at the front of a .ember file.
type Header = checkpoint.Header

// ItemMeta describes one item inside a Header.
type ItemMeta = checkpoint.ItemMeta

// ShardSource reads per-shard payloads during a gather.
type ShardSource = checkpoint.ShardSource

// ShardSink receives per-shard payloads during a scatter.
type ShardSink = checkpoint.ShardSink

// Save writes items to a .ember checkpoint file.
func Save(path string, items []Item, metadata map[string]string) error {
	return checkpoint.Save(path, items, metadata)
}

// Load reads all items from a .ember checkpoint file, verifying the
// payload checksum.
func Load(path string) ([]Item, Header, error) {
	return checkpoint.Load(path)
}

// ReadHeader reads just the header of a .ember file without loading or
// verifying the payload.
func ReadHeader(path string) (Header, error) {
	return checkpoint.ReadHeader(path)
}

// ShardRange maps shard i of n onto its half-open element range within
// a vector of total elements.
func ShardRange(total, i, n int) (begin, end int) {
	return checkpoint.ShardRange(total, i, n)
}

// Gather concatenates the payloads of all shards into one logical Item.
func Gather(name string, dtype tensor.DataType, total, shards int, src ShardSource) (Item, error) {
	return checkpoint.Gather(name, dtype, total, shards, src)
}

// Scatter splits a logical Item across shards by ShardRange.
func Scatter(it Item, shards int, sink ShardSink) error {
	return checkpoint.Scatter(it, shards, sink)
}
