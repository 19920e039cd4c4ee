// Package main provides the resnet CLI.
//
// Usage:
//
//	resnet version
//	resnet summary -height 224 -width 224
//	resnet trace -batch 2 -backend cpu
//	resnet bench -batch 8 -iterations 20 -backend webgpu
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/born-ml/resnet/backend/cpu"
	"github.com/born-ml/resnet/nn"
	"github.com/born-ml/resnet/tensor"
)

const version = "v0.1.0"

// options holds the flags shared by every command.
type options struct {
	batch      int
	height     int
	width      int
	backend    string
	workers    int
	warmup     int
	iterations int
}

func (o options) inputShape() tensor.Shape {
	return tensor.Shape{o.batch, 3, o.height, o.width}
}

// validate rejects input dimensions that cannot form an NCHW tensor.
func (o options) validate() error {
	if o.batch <= 0 || o.height <= 0 || o.width <= 0 {
		return fmt.Errorf("batch, height and width must be positive, got %d, %d, %d", o.batch, o.height, o.width)
	}
	return nil
}

var errUnknownBackend = errors.New("unknown backend")

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	if cmd == "version" {
		fmt.Printf("resnet %s\n", version)
		return
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	var opts options
	fs.IntVar(&opts.batch, "batch", 1, "Batch size")
	fs.IntVar(&opts.height, "height", 224, "Input height")
	fs.IntVar(&opts.width, "width", 224, "Input width")
	fs.StringVar(&opts.backend, "backend", "cpu", "Compute backend: cpu or webgpu")
	fs.IntVar(&opts.workers, "workers", 0, "CPU worker goroutines (0 = all cores)")
	fs.IntVar(&opts.warmup, "warmup", 2, "Warmup iterations for bench")
	fs.IntVar(&opts.iterations, "iterations", 10, "Timed iterations for bench")
	if err := fs.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	switch cmd {
	case "summary", "trace", "bench":
	default:
		usage()
		os.Exit(2)
	}
	if err := opts.validate(); err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}

	var err error
	switch opts.backend {
	case "cpu":
		err = runCPU(cmd, opts)
	case "webgpu":
		err = runWebGPU(cmd, opts)
	default:
		err = fmt.Errorf("%w: %q", errUnknownBackend, opts.backend)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func usage() {
	fmt.Println("resnet - ResNet-18 feature extractor")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  summary    Print the architecture, parameter count and stage shapes")
	fmt.Println("  trace      Run one forward pass on random input and report every stage")
	fmt.Println("  bench      Time repeated forward passes")
	fmt.Println("")
	fmt.Println("Flags: -batch -height -width -backend -workers -warmup -iterations")
}

func runCPU(cmd string, opts options) error {
	cfg := cpu.DefaultParallelConfig()
	if opts.workers > 0 {
		cfg.NumWorkers = opts.workers
	}
	backend, err := cpu.NewWithConfig(cfg)
	if err != nil {
		return err
	}
	return run(cmd, opts, backend)
}

// run executes cmd against a freshly initialized backbone.
func run[B tensor.Backend](cmd string, opts options, backend B) error {
	model, err := nn.NewBackbone(backend)
	if err != nil {
		return err
	}

	switch cmd {
	case "summary":
		return summary(model, opts)
	case "trace":
		return trace(model, opts, backend)
	default:
		return bench(model, opts, backend)
	}
}

func summary[B tensor.Backend](model *nn.Backbone[B], opts options) error {
	fmt.Println(model)
	fmt.Printf("\nTotal parameters: %d\n", model.NumParameters())
	fmt.Printf("Channels: %v\n\n", model.Channels())

	shape := opts.inputShape()
	fmt.Printf("  %-8s %v\n", "input", shape)
	out, err := model.Stem().OutputShape(shape)
	if err != nil {
		return err
	}
	fmt.Printf("  %-8s %v\n", "stem", out)
	for _, s := range model.Stages() {
		out, err = s.OutputShape(out)
		if err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}
		fmt.Printf("  %-8s %v\n", s.Name(), out)
	}
	return nil
}

func trace[B tensor.Backend](model *nn.Backbone[B], opts options, backend B) error {
	x := tensor.Randn[float32](opts.inputShape(), backend)
	fmt.Printf("Backend: %s\n", backend.Name())
	fmt.Printf("Input:   %v\n\n", x.Shape())

	last := time.Now()
	hook := func(stage string, out *tensor.Tensor[float32, B]) {
		mean, peak := stats(out.Data())
		fmt.Printf("  %-8s %-18v mean=%8.4f max=%8.4f  %6.2fms\n",
			stage, out.Shape(), mean, peak, float64(time.Since(last).Microseconds())/1000)
		last = time.Now()
	}

	start := time.Now()
	out, err := model.ForwardWithHook(x, hook)
	if err != nil {
		return err
	}
	fmt.Printf("\nOutput: %v in %v\n", out.Shape(), time.Since(start).Round(time.Millisecond))
	return nil
}

func bench[B tensor.Backend](model *nn.Backbone[B], opts options, backend B) error {
	if opts.iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", opts.iterations)
	}
	x := tensor.Randn[float32](opts.inputShape(), backend)

	fmt.Printf("Backend: %s\n", backend.Name())
	fmt.Printf("Input:   %v\n", x.Shape())
	fmt.Printf("Warmup: %d, iterations: %d\n\n", opts.warmup, opts.iterations)

	for i := 0; i < opts.warmup; i++ {
		if _, err := model.Forward(x); err != nil {
			return err
		}
	}

	times := make([]time.Duration, opts.iterations)
	for i := range times {
		start := time.Now()
		if _, err := model.Forward(x); err != nil {
			return err
		}
		times[i] = time.Since(start)
	}

	avg, lo, hi := durationStats(times)
	fmt.Printf("  avg=%.2fms, min=%.2fms, max=%.2fms\n",
		float64(avg.Microseconds())/1000,
		float64(lo.Microseconds())/1000,
		float64(hi.Microseconds())/1000)
	fmt.Printf("  throughput: %.1f images/s\n", float64(opts.batch)/avg.Seconds())
	return nil
}

// stats returns the mean and maximum of data.
func stats(data []float32) (mean, peak float64) {
	if len(data) == 0 {
		return 0, 0
	}
	peak = float64(data[0])
	var sum float64
	for _, v := range data {
		sum += float64(v)
		if float64(v) > peak {
			peak = float64(v)
		}
	}
	return sum / float64(len(data)), peak
}

func durationStats(times []time.Duration) (avg, lo, hi time.Duration) {
	lo, hi = times[0], times[0]
	var total time.Duration
	for _, t := range times {
		total += t
		lo = min(lo, t)
		hi = max(hi, t)
	}
	return total / time.Duration(len(times)), lo, hi
}
