// Package shader assembles complete GLSL sources from user-supplied
// Shadertoy-style fragment code. The user code is expected to define
//
//	void mainImage(out vec4 fragColor, in vec2 fragCoord)
//
// and gets wrapped with the standard uniform declarations and a main
// that forwards the interpolated UV scaled by iResolution. No
// validation happens here; bad code surfaces at compile/link time.
package shader

import (
	_ "embed"
)

// vertexSource draws a fullscreen quad from a 4-vertex triangle strip
// and hands the fragment stage a 0..1 UV.
const vertexSource = `#version 300 es
layout (location = 0) in vec2 in_vert;
out vec2 vUv;
void main() {
    vUv = in_vert * 0.5 + 0.5;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const preamble = `#version 300 es
precision mediump float;

uniform vec3  iResolution; // viewport resolution, z is the device pixel ratio
uniform float iTime;       // seconds since the loop started
uniform float iTimeDelta;  // seconds spent rendering the previous frame
uniform int   iFrame;      // index of the current frame
uniform float iFrameRate;  // frames rendered per second
uniform vec4  iMouse;      // xy = pointer pixel coords, zw = last press coords
uniform vec4  iDate;       // year, month, day, seconds since midnight
`

const mainWrapper = `
in vec2 vUv;
out vec4 frag_color;

void main() {
    mainImage(frag_color, vUv * iResolution.xy);
}
`

//go:embed default.frag
var defaultFragment string

// Prepare wraps user fragment code with the uniform preamble and the
// mainImage forwarding shim. Same input always yields the same output.
func Prepare(userCode string) string {
	return preamble + userCode + mainWrapper
}

// VertexSource returns the fixed fullscreen-quad vertex shader.
func VertexSource() string {
	return vertexSource
}

// DefaultFragment returns the built-in user code rendered when no
// shader has been supplied yet. It is not preamble-wrapped.
func DefaultFragment() string {
	return defaultFragment
}
