// Package glbackend implements graphics.Device on desktop OpenGL 4.1.
// Shader sources target WebGL2 GLSL; they are translated to GLSL 410
// before compilation, and uniforms are resolved through the
// translator's name mapping.
package glbackend

import (
	"context"
	"fmt"
	"strings"
	"sync"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	gst "github.com/richinsley/goshadertranslator"

	"github.com/shaderplay/shaderplay/graphics"
)

var glInitOnce sync.Once

// Fullscreen quad as a triangle strip.
var quadVertices = []float32{
	-1.0, -1.0,
	1.0, -1.0,
	-1.0, 1.0,
	1.0, 1.0,
}

// Device holds the shared GL state: the quad VAO and the shader
// translator. Create it after the context is current on the render
// thread.
type Device struct {
	quadVAO    uint32
	translator *gst.ShaderTranslator
}

// New initializes the GL bindings, the fullscreen-quad geometry and
// the shader translator. Must be called with a current context on the
// locked OS thread.
func New() (*Device, error) {
	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}

	translator, err := gst.NewShaderTranslator(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to create shader translator: %w", err)
	}

	d := &Device{translator: translator}

	var vbo uint32
	gl.GenVertexArrays(1, &d.quadVAO)
	gl.GenBuffers(1, &vbo)
	gl.BindVertexArray(d.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	return d, nil
}

// CompileProgram translates both stages from WebGL2 GLSL to GLSL 410,
// compiles and links them, and returns a program that resolves uniform
// names through the translator's variable map.
func (d *Device) CompileProgram(vertexSrc, fragmentSrc string) (graphics.Program, error) {
	vs, err := d.translator.TranslateShader(vertexSrc, "vertex", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL410)
	if err != nil {
		return nil, fmt.Errorf("vertex shader translation failed: %w", err)
	}
	fs, err := d.translator.TranslateShader(fragmentSrc, "fragment", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL410)
	if err != nil {
		return nil, fmt.Errorf("fragment shader translation failed: %w", err)
	}

	id, err := newProgram(vs.Code, fs.Code)
	if err != nil {
		return nil, err
	}
	return &program{id: id, vars: fs.Variables}, nil
}

// DrawQuad issues the fullscreen draw into a viewport of the given
// size.
func (d *Device) DrawQuad(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.BindVertexArray(d.quadVAO)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.BindVertexArray(0)
}

// Shutdown releases the shared geometry.
func (d *Device) Shutdown() {
	gl.DeleteVertexArrays(1, &d.quadVAO)
}

type program struct {
	id   uint32
	vars map[string]gst.ShaderVariable
}

func (p *program) Use() {
	gl.UseProgram(p.id)
}

func (p *program) UniformLocation(name string) int32 {
	if v, ok := p.vars[name]; ok {
		return gl.GetUniformLocation(p.id, gl.Str(v.MappedName+"\x00"))
	}
	return -1
}

func (p *program) SetFloat(loc int32, v float32) {
	gl.Uniform1f(loc, v)
}

func (p *program) SetInt(loc int32, v int32) {
	gl.Uniform1i(loc, v)
}

func (p *program) SetVec3(loc int32, x, y, z float32) {
	gl.Uniform3f(loc, x, y, z)
}

func (p *program) SetVec4(loc int32, x, y, z, w float32) {
	gl.Uniform4f(loc, x, y, z, w)
}

func (p *program) Destroy() {
	gl.DeleteProgram(p.id)
}

func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, err
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vertexShader)
	gl.AttachShader(prog, fragmentShader)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(prog, logLength, nil, gl.Str(infoLog))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("failed to link program: %v", infoLog)
	}

	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	return prog, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	sh := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(sh, 1, csources, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(sh, logLength, nil, gl.Str(infoLog))
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("failed to compile shader: %v", infoLog)
	}
	return sh, nil
}
