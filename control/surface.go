// Package control is the externally callable surface of the player:
// shader hot-swap, player-state updates, play/pause and the device
// lifecycle notifications. Calls arrive from host event handlers that
// must never bring down the render loop, so every failure is reported
// through the event bus instead of propagating.
package control

import (
	"encoding/json"
	"log"

	"github.com/shaderplay/shaderplay/events"
	"github.com/shaderplay/shaderplay/shader"
	"github.com/shaderplay/shaderplay/state"
)

// Surface exposes the inbound control operations. Safe for concurrent
// use from multiple goroutines.
type Surface struct {
	store *state.Store
	bus   *events.Bus
}

// NewSurface returns a Surface writing into store and reporting
// through bus.
func NewSurface(store *state.Store, bus *events.Bus) *Surface {
	return &Surface{store: store, bus: bus}
}

// SetShader wraps raw user fragment code and stores it into the shader
// slot, requesting a reload. It never blocks on the render loop.
func (s *Surface) SetShader(userCode string) {
	if err := s.store.Shader.TryStore(shader.Prepare(userCode)); err != nil {
		s.bus.ReportError("failed to store shader: %v", err)
	}
}

// UpdatePlayerState decodes a JSON payload with optional pointer and
// paused fields and merges it into the player-state cell. A malformed
// payload is reported and has no effect.
func (s *Surface) UpdatePlayerState(payload []byte) {
	var update state.PlayerState
	if err := json.Unmarshal(payload, &update); err != nil {
		s.bus.ReportError("unknown player state format: %v", err)
		return
	}
	s.merge(update)
}

// UpdatePointer merges a new pointer snapshot, replacing the previous
// one wholesale.
func (s *Surface) UpdatePointer(ptr state.PointerState) {
	s.merge(state.PlayerState{Pointer: &ptr})
}

// Play resumes rendering.
func (s *Surface) Play() {
	s.setPaused(false)
}

// Stop freezes the visible frame. The loop keeps being scheduled.
func (s *Surface) Stop() {
	s.setPaused(true)
}

func (s *Surface) setPaused(value bool) {
	s.merge(state.PlayerState{Paused: &value})
}

func (s *Surface) merge(update state.PlayerState) {
	if err := s.store.Player.TryMerge(update); err != nil {
		s.bus.ReportError("failed to update player state: %v", err)
	}
}

// NotifyContextLost records that the host surface lost its device.
// The render loop tears down its GPU resources on the next frame.
func (s *Surface) NotifyContextLost() {
	log.Printf("host surface lost its graphics context")
	s.store.ContextLost.Store(true)
}

// NotifyContextRestored records that the host surface is usable again.
// The render loop forces a full rebuild on the next frame.
func (s *Surface) NotifyContextRestored() {
	log.Printf("host surface restored its graphics context")
	s.store.ContextLost.Store(false)
}
