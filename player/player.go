// Package player runs the per-frame state machine: it reacts to device
// loss and restore, swaps the live program when a reload is requested,
// pulls a non-blocking snapshot of externally supplied player state,
// writes the per-frame uniforms and issues the draw call. Nothing in
// here may block or panic on a single bad frame.
package player

import (
	"log"
	"time"

	"github.com/shaderplay/shaderplay/events"
	"github.com/shaderplay/shaderplay/graphics"
	"github.com/shaderplay/shaderplay/shader"
	"github.com/shaderplay/shaderplay/state"
)

type uniformLocations struct {
	resolution int32
	time       int32
	timeDelta  int32
	frame      int32
	frameRate  int32
	mouse      int32
	date       int32
}

func resolveLocations(p graphics.Program) uniformLocations {
	return uniformLocations{
		resolution: p.UniformLocation("iResolution"),
		time:       p.UniformLocation("iTime"),
		timeDelta:  p.UniformLocation("iTimeDelta"),
		frame:      p.UniformLocation("iFrame"),
		frameRate:  p.UniformLocation("iFrameRate"),
		mouse:      p.UniformLocation("iMouse"),
		date:       p.UniformLocation("iDate"),
	}
}

// Player owns the live program and drives it once per display refresh.
// Frame is the per-frame callback; everything else it reads arrives
// through the shared store.
type Player struct {
	ctx   graphics.Context
	dev   graphics.Device
	store *state.Store
	bus   *events.Bus

	program graphics.Program
	locs    uniformLocations

	// lastTime == 0 marks "no previous frame"; it suppresses the
	// delta on the first frame after start and after every reload.
	lastTime float64
	frame    float32

	// restorePending is set between detecting a lost device and the
	// host signaling restore.
	restorePending bool

	// last known values, used whenever a non-blocking read loses the
	// lock to a concurrent writer.
	cachedState  state.PlayerState
	cachedSource string

	now func() time.Time
}

// New wires a Player against a host context, a GPU device and the
// shared store. Call Init before the first Frame.
func New(ctx graphics.Context, dev graphics.Device, store *state.Store, bus *events.Bus) *Player {
	return &Player{
		ctx:   ctx,
		dev:   dev,
		store: store,
		bus:   bus,
		now:   time.Now,
	}
}

// Init compiles the initial program from the shader slot, or from the
// built-in shader if nothing was ever submitted. Unlike reloads, a
// failure here is fatal: there is no previous program to keep.
func (p *Player) Init() error {
	frag, _ := p.latestFragmentSource()
	prog, err := p.dev.CompileProgram(shader.VertexSource(), frag)
	if err != nil {
		return err
	}
	p.adopt(prog)
	p.store.Shader.ClearReload()
	return nil
}

// Frame is the per-frame callback. now is the host clock in seconds.
// It returns true as long as the loop should keep being invoked, which
// is always: pause and device loss freeze output, not scheduling.
func (p *Player) Frame(now float64) bool {
	forceReload := false
	lost := p.store.ContextLost.Load()
	switch {
	case lost && !p.restorePending:
		// The handle is already invalid; free it eagerly rather than
		// waiting for restore.
		if p.program != nil {
			p.program.Destroy()
			p.program = nil
		}
		p.restorePending = true
		return true
	case lost && p.restorePending:
		return true
	case !lost && p.restorePending:
		log.Printf("context restored, forcing shader reload")
		forceReload = true
		p.restorePending = false
	}

	if forceReload || p.store.Shader.ReloadRequested() {
		if p.tryReload(forceReload) {
			p.store.Shader.ClearReload()
		}
	}
	if p.program == nil {
		// The post-restore rebuild failed; wait for a new shader.
		return true
	}

	if st, ok := p.store.Player.TryLoad(); ok {
		p.cachedState = st
	}
	if p.cachedState.Paused != nil && *p.cachedState.Paused {
		return true
	}

	p.program.Use()
	p.program.SetFloat(p.locs.time, float32(now))

	width, height := p.ctx.GetFramebufferSize()
	scale := p.ctx.ContentScale()
	if scale <= 0 {
		scale = 1
	}
	p.program.SetVec3(p.locs.resolution, float32(width), float32(height), scale)

	var delta float32
	if p.lastTime != 0 {
		delta = float32(now - p.lastTime)
	}
	p.program.SetFloat(p.locs.timeDelta, delta)
	p.lastTime = now

	p.program.SetInt(p.locs.frame, int32(p.frame))
	p.frame++

	// 1/delta is undefined on the sentinel frame; write 0 there.
	var rate float32
	if delta > 0 {
		rate = 1 / delta
	}
	p.program.SetFloat(p.locs.frameRate, rate)

	if ptr := p.cachedState.Pointer; ptr != nil {
		p.program.SetVec4(p.locs.mouse, ptr.X, ptr.Y, ptr.DownX, ptr.DownY)
	}

	wall := p.now()
	p.program.SetVec4(p.locs.date,
		float32(wall.Year()),
		float32(int(wall.Month())-1),
		float32(wall.Day()),
		float32(wall.Hour()*3600+wall.Minute()*60+wall.Second()))

	p.dev.DrawQuad(width, height)
	return true
}

// Shutdown releases the live program, if any.
func (p *Player) Shutdown() {
	if p.program != nil {
		p.program.Destroy()
		p.program = nil
	}
}

// tryReload attempts a rebuild from the latest slot content and
// reports whether an attempt was made. When the slot is mid-write and
// the rebuild is not forced, the attempt is deferred to the next frame
// so a just-submitted shader cannot be skipped. On compile failure the
// existing program stays live and the error is reported once; the
// request is still consumed, so a broken shader is not retried until
// it is resubmitted.
func (p *Player) tryReload(forced bool) bool {
	frag, ok := p.latestFragmentSource()
	if !ok && !forced {
		return false
	}
	prog, err := p.dev.CompileProgram(shader.VertexSource(), frag)
	if err != nil {
		p.bus.ReportError("shader compilation error: %v", err)
		return true
	}
	old := p.program
	p.adopt(prog)
	if old != nil {
		old.Destroy()
	}
	log.Printf("shader reloaded")
	return true
}

// adopt installs a freshly linked program, re-resolves its uniform
// handles and re-arms the delta sentinel.
func (p *Player) adopt(prog graphics.Program) {
	p.program = prog
	p.program.Use()
	p.locs = resolveLocations(prog)
	p.lastTime = 0
}

// latestFragmentSource returns the source to compile and whether the
// slot was readable this frame. When the slot is mid-write it falls
// back to the last successfully read content, and to the built-in
// shader when nothing was ever submitted.
func (p *Player) latestFragmentSource() (string, bool) {
	if !p.store.Shader.Initialized() {
		return shader.Prepare(shader.DefaultFragment()), true
	}
	if src, ok := p.store.Shader.TryLoad(); ok {
		p.cachedSource = src
		return src, true
	}
	if p.cachedSource != "" {
		return p.cachedSource, false
	}
	return shader.Prepare(shader.DefaultFragment()), false
}
