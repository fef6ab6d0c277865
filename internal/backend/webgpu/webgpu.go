// Package webgpu implements a float32 GEMM kernel as a WGSL compute shader.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings,
// which are currently only wired up on windows; other platforms get a stub
// whose New always fails.
//
// float64 has no portable WGSL representation, so GemmFloat64 runs on the
// CPU kernel.
package webgpu

import "github.com/pkg/errors"

// ErrUnavailable is returned by New when no usable adapter exists.
var ErrUnavailable = errors.New("webgpu: not available on this platform")

// Workgroup tile edge, must match @workgroup_size in gemmShader.
const workgroupSize = 16

// gemmShader computes C[M×K] = op(A)[M×N] · op(B)[N×K].
// Bit 0 of flags transposes A, bit 1 transposes B.
const gemmShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> c: array<f32>;

struct Params {
    M: u32,
    N: u32,
    K: u32,
    flags: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.y;
    let col = global_id.x;
    if (row >= params.M || col >= params.K) {
        return;
    }

    let aT = (params.flags & 1u) != 0u;
    let bT = (params.flags & 2u) != 0u;
    var sum: f32 = 0.0;
    for (var p: u32 = 0u; p < params.N; p = p + 1u) {
        var ai = row * params.N + p;
        if (aT) {
            ai = p * params.M + row;
        }
        var bi = p * params.K + col;
        if (bT) {
            bi = col * params.N + p;
        }
        sum = sum + a[ai] * b[bi];
    }
    c[row * params.K + col] = sum;
}
`
