//go:build windows

package main

import (
	"fmt"

	"github.com/born-ml/resnet/backend/webgpu"
)

func runWebGPU(cmd string, opts options) error {
	if !webgpu.IsAvailable() {
		return fmt.Errorf("webgpu not available on this system, ensure wgpu-native is installed")
	}
	gpu, err := webgpu.New()
	if err != nil {
		return err
	}
	defer gpu.Release()

	return run(cmd, opts, gpu)
}
