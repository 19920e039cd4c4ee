package webgpu

import (
	"fmt"
	"math"
)

// workgroupSize is the number of threads per workgroup for element-wise shaders.
const workgroupSize = 256

// tileSize is the side of the 8x8 workgroups used by spatial shaders.
const tileSize = 8

// maxWorkgroupsPerDimension is the WebGPU default for maxComputeWorkgroupsPerDimension.
const maxWorkgroupsPerDimension = 65535

// groups returns ceil(n / size).
func groups(n, size int) int {
	return (n + size - 1) / size
}

// linearGrid spreads n invocations of an element-wise shader over x and y.
// The shader recovers the flat index as gid.y * rowWidth + gid.x.
func linearGrid(op string, n int) (dims [3]uint32, rowWidth uint32, err error) {
	g := max(groups(n, workgroupSize), 1)
	x := min(g, maxWorkgroupsPerDimension)
	y := groups(g, x)

	// Every dispatched index must fit u32 or the tail would wrap onto live elements.
	if y > maxWorkgroupsPerDimension || uint64(y)*uint64(x*workgroupSize) > math.MaxUint32 {
		return dims, 0, fmt.Errorf("%s: %d elements exceed the webgpu dispatch limit", op, n)
	}
	//nolint:gosec // G115: bounded by maxWorkgroupsPerDimension above
	return [3]uint32{uint32(x), uint32(y), 1}, uint32(x * workgroupSize), nil
}

// spatialGrid covers planes output planes of outH x outW with tileSize tiles.
// Planes past the z limit fold into x: an invocation works on plane
// (gid.x / xSpan) * zSpan + gid.z at column gid.x % xSpan.
func spatialGrid(op string, planes, outH, outW int) (dims [3]uint32, xSpan, zSpan uint32, err error) {
	tilesX := groups(outW, tileSize)
	tilesY := groups(outH, tileSize)
	z := max(min(planes, maxWorkgroupsPerDimension), 1)
	chunks := groups(planes, z)

	if uint64(planes)*uint64(outH)*uint64(outW) > math.MaxUint32 {
		return dims, 0, 0, fmt.Errorf("%s: output of %d planes of %dx%d exceeds the webgpu index range", op, planes, outH, outW)
	}
	if tilesX*chunks > maxWorkgroupsPerDimension || tilesY > maxWorkgroupsPerDimension {
		return dims, 0, 0, fmt.Errorf("%s: %d planes of %dx%d exceed the webgpu dispatch limit", op, planes, outH, outW)
	}
	//nolint:gosec // G115: bounded by maxWorkgroupsPerDimension above
	return [3]uint32{uint32(tilesX * chunks), uint32(tilesY), uint32(z)}, uint32(tilesX * tileSize), uint32(z), nil
}
