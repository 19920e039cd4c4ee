//go:build !windows

package main

import "fmt"

func runWebGPU(string, options) error {
	return fmt.Errorf("%w: webgpu is only built on windows", errUnknownBackend)
}
