package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/ember-ml/ember/checkpoint"
	"github.com/ember-ml/ember/internal/config"
	"github.com/ember-ml/ember/optim"
	"github.com/ember-ml/ember/tensor"
	"github.com/ember-ml/ember/train"
)

// runTrain minimizes a synthetic quadratic with the configured
// optimizer group. It is a demonstration of the update loop, not a
// model trainer: gradients here come from a closed form rather than
// backpropagation.
func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML training config (optional)")
	steps := fs.Int("steps", 100, "number of update steps")
	dim := fs.Int("dim", 64, "parameter count")
	checkpointPath := fs.String("checkpoint", "", "write optimizer state here after the run")
	resumePath := fs.String("resume", "", "restore optimizer state from this checkpoint first")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}

	ocfg := cfg.OptimConfig()
	ocfg.Notice = &optim.Notice{}
	opts, err := optim.NewGroup(ocfg, cfg.Shards)
	if err != nil {
		return err
	}

	state := &train.State{Eta: cfg.LearnRate}
	for _, o := range opts {
		state.Register(o)
	}

	storage, err := tensor.ParseDataType(cfg.Precision[0])
	if err != nil {
		return err
	}

	// Minimize 0.5*||p - target||^2; the gradient is p - target.
	params := tensor.New(*dim, storage)
	target := make([]float32, *dim)
	for i := range target {
		target[i] = float32(i%7) - 3
		params.Set(i, 0)
	}

	if *resumePath != "" {
		items, header, err := checkpoint.Load(*resumePath)
		if err != nil {
			return err
		}
		if err := optim.Load(items, opts); err != nil {
			return err
		}
		log.Printf("resumed optimizer state from run %s", header.RunID)
		state.NotifyLoaded()
	}

	for step := 0; step < *steps; step++ {
		grads := tensor.New(*dim, storage)
		for i := 0; i < *dim; i++ {
			grads.Set(i, params.Get(i)-target[i])
		}

		for i, o := range opts {
			begin, end := checkpoint.ShardRange(*dim, i, cfg.Shards)
			o.Update(params.Slice(begin, end), grads.Slice(begin, end), optim.MBSizeNotProvided, 1)
		}
		state.Batches++
	}

	var loss float64
	for i := 0; i < *dim; i++ {
		d := float64(params.Get(i) - target[i])
		loss += 0.5 * d * d
	}
	log.Printf("finished %d steps with %s on %d shards, loss %.6f",
		*steps, opts[0].Algorithm(), cfg.Shards, loss)

	if *checkpointPath != "" {
		var items []checkpoint.Item
		if err := optim.Save(&items, opts); err != nil {
			return err
		}
		meta := map[string]string{"algorithm": opts[0].Algorithm()}
		if err := checkpoint.Save(*checkpointPath, items, meta); err != nil {
			return err
		}
		log.Printf("wrote optimizer state to %s", *checkpointPath)
	}
	return nil
}

func runInspect(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: ember inspect <file.ember>")
	}
	header, err := checkpoint.ReadHeader(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("format version: %d\n", header.FormatVersion)
	fmt.Printf("ember version:  %s\n", header.EmberVersion)
	fmt.Printf("run id:         %s\n", header.RunID)
	fmt.Printf("created at:     %s\n", header.CreatedAt)
	for k, v := range header.Metadata {
		fmt.Printf("metadata:       %s=%s\n", k, v)
	}
	for _, it := range header.Items {
		fmt.Printf("item %-16s %s[%d] (%d bytes)\n", it.Name, it.DType, it.Size, it.Bytes)
	}
	return nil
}
