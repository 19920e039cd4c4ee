//go:build windows

package webgpu

// WGSL compute shaders for the network primitives.
// Using string constants instead of embed for simplicity.

// addShader performs element-wise addition: result = a + b.
const addShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    row: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.y * params.row + global_id.x;
    if (idx < params.size) {
        result[idx] = a[idx] + b[idx];
    }
}
`

// reluShader applies ReLU activation: result = max(0, x).
const reluShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    row: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.y * params.row + global_id.x;
    if (idx < params.size) {
        result[idx] = max(0.0, input[idx]);
    }
}
`

// batchNormShader applies a folded per-channel affine transform:
// result = x * scale[c] + shift[c], where c = (idx / plane) % channels.
const batchNormShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> scale: array<f32>;
@group(0) @binding(2) var<storage, read> shift: array<f32>;
@group(0) @binding(3) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    channels: u32,
    plane: u32,
    row: u32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.y * params.row + global_id.x;
    if (idx < params.size) {
        let c = (idx / params.plane) % params.channels;
        result[idx] = input[idx] * scale[c] + shift[c];
    }
}
`

// conv2dShader performs 2D convolution with a per-channel bias.
// Input shape: [batch, in_channels, height, width].
// Kernel shape: [out_channels, in_channels, kH, kW].
// Output shape: [batch, out_channels, out_height, out_width].
const conv2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> kernel: array<f32>;
@group(0) @binding(2) var<storage, read> bias: array<f32>;
@group(0) @binding(3) var<storage, read_write> output: array<f32>;

struct Params {
    batch: u32,
    in_channels: u32,
    in_height: u32,
    in_width: u32,
    out_channels: u32,
    kernel_h: u32,
    kernel_w: u32,
    stride: u32,
    padding: u32,
    out_height: u32,
    out_width: u32,
    x_span: u32,
    z_span: u32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    // Planes past the z limit are folded into x in chunks of x_span columns.
    let plane = (global_id.x / params.x_span) * params.z_span + global_id.z;
    let oh = global_id.y;
    let ow = global_id.x % params.x_span;

    if (plane >= params.batch * params.out_channels || oh >= params.out_height || ow >= params.out_width) {
        return;
    }

    let b = plane / params.out_channels;
    let oc = plane % params.out_channels;

    var sum: f32 = bias[oc];

    for (var ic: u32 = 0u; ic < params.in_channels; ic = ic + 1u) {
        for (var kh: u32 = 0u; kh < params.kernel_h; kh = kh + 1u) {
            for (var kw: u32 = 0u; kw < params.kernel_w; kw = kw + 1u) {
                // Underflow wraps around and fails the bounds check, which
                // handles the zero padding on the top and left edges.
                let ih = oh * params.stride + kh - params.padding;
                let iw = ow * params.stride + kw - params.padding;

                if (ih < params.in_height && iw < params.in_width) {
                    let in_idx = ((b * params.in_channels + ic) * params.in_height + ih) * params.in_width + iw;
                    let k_idx = ((oc * params.in_channels + ic) * params.kernel_h + kh) * params.kernel_w + kw;
                    sum = sum + input[in_idx] * kernel[k_idx];
                }
            }
        }
    }

    let out_idx = ((b * params.out_channels + oc) * params.out_height + oh) * params.out_width + ow;
    output[out_idx] = sum;
}
`

// maxPool2dShader performs 2D max pooling without padding.
// Input shape: [batch, channels, height, width].
// Output shape: [batch, channels, out_height, out_width].
const maxPool2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;

struct Params {
    batch: u32,
    channels: u32,
    in_height: u32,
    in_width: u32,
    out_height: u32,
    out_width: u32,
    kernel_size: u32,
    stride: u32,
    x_span: u32,
    z_span: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let plane = (global_id.x / params.x_span) * params.z_span + global_id.z;
    let oh = global_id.y;
    let ow = global_id.x % params.x_span;

    if (plane >= params.batch * params.channels || oh >= params.out_height || ow >= params.out_width) {
        return;
    }

    let base = plane * params.in_height * params.in_width;
    let h0 = oh * params.stride;
    let w0 = ow * params.stride;

    var best: f32 = input[base + h0 * params.in_width + w0];
    for (var kh: u32 = 0u; kh < params.kernel_size; kh = kh + 1u) {
        for (var kw: u32 = 0u; kw < params.kernel_size; kw = kw + 1u) {
            best = max(best, input[base + (h0 + kh) * params.in_width + w0 + kw]);
        }
    }

    output[(plane * params.out_height + oh) * params.out_width + ow] = best;
}
`
