package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaderplay/shaderplay/events"
	"github.com/shaderplay/shaderplay/state"
)

func newTestSurface() (*Surface, *state.Store, *[]events.Event) {
	store := &state.Store{}
	bus := &events.Bus{}
	var errs []events.Event
	bus.Subscribe(func(ev events.Event) {
		if ev.Name == events.ErrorEvent {
			errs = append(errs, ev)
		}
	})
	return NewSurface(store, bus), store, &errs
}

func TestSetShaderStoresPreparedSource(t *testing.T) {
	surface, store, errs := newTestSurface()

	surface.SetShader("// user fragment")

	assert.Empty(t, *errs)
	assert.True(t, store.Shader.Initialized())
	assert.True(t, store.Shader.ReloadRequested())

	src, ok := store.Shader.TryLoad()
	require.True(t, ok)
	assert.Contains(t, src, "// user fragment")
	assert.Contains(t, src, "uniform vec3  iResolution", "stored source is preamble-wrapped")
}

func TestSetShaderContendedIsReportedNotDropped(t *testing.T) {
	surface, store, errs := newTestSurface()

	store.Shader.Lock()
	surface.SetShader("// while locked")
	store.Shader.Unlock()

	require.Len(t, *errs, 1)
	assert.Contains(t, (*errs)[0].Message, "failed to store shader")
	assert.False(t, store.Shader.Initialized())
}

func TestUpdatePlayerStateMergesFields(t *testing.T) {
	surface, store, errs := newTestSurface()

	surface.UpdatePlayerState([]byte(`{"pointer":{"x":1,"y":2,"down_x":3,"down_y":4}}`))
	surface.UpdatePlayerState([]byte(`{"paused":true}`))
	surface.UpdatePlayerState([]byte(`{}`))

	assert.Empty(t, *errs)
	got, ok := store.Player.TryLoad()
	require.True(t, ok)
	require.NotNil(t, got.Pointer)
	assert.Equal(t, state.PointerState{X: 1, Y: 2, DownX: 3, DownY: 4}, *got.Pointer)
	require.NotNil(t, got.Paused)
	assert.True(t, *got.Paused)
}

func TestUpdatePlayerStateMalformedHasNoEffect(t *testing.T) {
	surface, store, errs := newTestSurface()

	surface.UpdatePlayerState([]byte(`{"paused":"yes"}`))

	require.Len(t, *errs, 1)
	assert.Contains(t, (*errs)[0].Message, "unknown player state format")
	_, ok := store.Player.TryLoad()
	assert.False(t, ok, "a malformed payload must not initialize the cell")
}

func TestPlayStopTogglePaused(t *testing.T) {
	surface, store, _ := newTestSurface()

	surface.Stop()
	got, ok := store.Player.TryLoad()
	require.True(t, ok)
	require.NotNil(t, got.Paused)
	assert.True(t, *got.Paused)

	surface.Play()
	got, ok = store.Player.TryLoad()
	require.True(t, ok)
	assert.False(t, *got.Paused)
	assert.Nil(t, got.Pointer, "play/pause must not clobber the pointer field")
}

func TestContextLifecycleNotifications(t *testing.T) {
	surface, store, _ := newTestSurface()

	surface.NotifyContextLost()
	assert.True(t, store.ContextLost.Load())
	surface.NotifyContextRestored()
	assert.False(t, store.ContextLost.Load())
}
