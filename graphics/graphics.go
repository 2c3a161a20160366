// Package graphics defines the interfaces between the render loop and
// the GPU/windowing backends, so the loop can be driven by GLFW+OpenGL
// in production and by fakes in tests.
package graphics

// Context is the window host the loop renders into.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	// EndFrame presents the frame and pumps host events.
	EndFrame()
	// GetFramebufferSize returns the current drawable size in pixels.
	// Re-read every frame; the surface can be resized at any time.
	GetFramebufferSize() (int, int)
	// ContentScale returns the device pixel ratio, or 0 if the host
	// cannot provide one.
	ContentScale() float32
	// Time returns seconds since the host started.
	Time() float64
}

// Program is a live GPU program with its uniform handles resolved.
// Exactly one is live at a time and it is owned by the render loop.
type Program interface {
	Use()
	// UniformLocation returns the handle for a uniform by its source
	// name, or a negative location if the program does not reference
	// it. Writes to a negative location are ignored.
	UniformLocation(name string) int32
	SetFloat(loc int32, v float32)
	SetInt(loc int32, v int32)
	SetVec3(loc int32, x, y, z float32)
	SetVec4(loc int32, x, y, z, w float32)
	// Destroy releases the GPU object. Must be called on every handle
	// being superseded to avoid leaking programs across reloads.
	Destroy()
}

// Device owns compilation and the fullscreen-quad draw.
type Device interface {
	// CompileProgram compiles and links the pair of sources. On
	// failure the previously live program is untouched; the caller
	// decides whether to keep it.
	CompileProgram(vertexSrc, fragmentSrc string) (Program, error)
	// DrawQuad issues one fullscreen quad (4-vertex triangle strip)
	// into a viewport of the given pixel size.
	DrawQuad(width, height int)
}
