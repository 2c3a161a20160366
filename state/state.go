// Package state holds the mutable cells shared between the render loop
// and external callers. Each cell carries its own lock; there is no
// global lock and no nested acquisition across cells. The render loop
// only ever takes the non-blocking path: if a cell is busy it keeps
// rendering with its last known snapshot instead of stalling a frame.
package state

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrContended is returned when a cell's lock could not be acquired.
// Callers report it and drop the operation; they must not retry-loop.
var ErrContended = errors.New("state cell is locked by another caller")

// PointerState is the iMouse payload: the current pointer position and
// the position at which the primary button was last pressed, in pixel
// coordinates. It is replaced wholesale on every update.
type PointerState struct {
	X     float32 `json:"x"`
	Y     float32 `json:"y"`
	DownX float32 `json:"down_x"`
	DownY float32 `json:"down_y"`
}

// PlayerState is the externally supplied player state. Both fields are
// optional so a partial update can patch one without touching the
// other.
type PlayerState struct {
	Pointer *PointerState `json:"pointer,omitempty"`
	Paused  *bool         `json:"paused,omitempty"`
}

// merge applies the field-wise "new if present, else keep old" rule.
func (s *PlayerState) merge(update PlayerState) {
	if update.Pointer != nil {
		s.Pointer = update.Pointer
	}
	if update.Paused != nil {
		s.Paused = update.Paused
	}
}

// PlayerCell guards the latest PlayerState. The zero value is an
// uninitialized cell.
type PlayerCell struct {
	sync.Mutex
	set   bool
	state PlayerState
}

// TryLoad returns a snapshot of the cell without blocking. ok is false
// when the cell is locked by a concurrent writer or has never been
// written; the caller falls back to its last known value either way.
func (c *PlayerCell) TryLoad() (PlayerState, bool) {
	if !c.TryLock() {
		return PlayerState{}, false
	}
	defer c.Unlock()
	if !c.set {
		return PlayerState{}, false
	}
	return c.state, true
}

// TryMerge initializes the cell with update on first write, otherwise
// merges field-wise. Returns ErrContended if the lock is held.
func (c *PlayerCell) TryMerge(update PlayerState) error {
	if !c.TryLock() {
		return ErrContended
	}
	defer c.Unlock()
	if !c.set {
		c.state = update
		c.set = true
		return nil
	}
	c.state.merge(update)
	return nil
}

// ShaderCell guards the latest prepared fragment source. The reload
// flag is raised on every store and lowered by the render loop once a
// reload attempt has been made, successful or not.
type ShaderCell struct {
	sync.Mutex
	source string
	set    atomic.Bool
	reload atomic.Bool
}

// TryStore replaces the slot content and requests a reload. Returns
// ErrContended if the lock is held.
func (c *ShaderCell) TryStore(source string) error {
	if !c.TryLock() {
		return ErrContended
	}
	c.source = source
	c.Unlock()
	c.set.Store(true)
	c.reload.Store(true)
	return nil
}

// TryLoad returns the slot content without blocking. ok is false when
// the lock is held by a concurrent writer.
func (c *ShaderCell) TryLoad() (string, bool) {
	if !c.TryLock() {
		return "", false
	}
	source := c.source
	c.Unlock()
	return source, true
}

// Initialized reports whether the slot has ever been written.
func (c *ShaderCell) Initialized() bool {
	return c.set.Load()
}

// ReloadRequested reports whether a reload is pending.
func (c *ShaderCell) ReloadRequested() bool {
	return c.reload.Load()
}

// ClearReload lowers the reload flag after an attempt has been made.
func (c *ShaderCell) ClearReload() {
	c.reload.Store(false)
}

// Store aggregates everything the render loop shares with external
// callers: the two state cells and the device-lost flag. ContextLost
// is set and cleared by host surface notifications; the loop only
// reads it.
type Store struct {
	Player      PlayerCell
	Shader      ShaderCell
	ContextLost atomic.Bool
}
