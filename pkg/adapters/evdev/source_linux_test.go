//go:build linux

package evdev

import (
	"testing"

	"github.com/aretw0/keyseq/pkg/domain"
	evdev "github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_ButtonsAndHats(t *testing.T) {
	d := &device{ranges: map[evdev.EvCode]evdev.AbsInfo{
		evdev.ABS_Z: {Minimum: 0, Maximum: 255},
	}}

	apply(d, evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.BTN_SOUTH, Value: 1})
	apply(d, evdev.InputEvent{Type: evdev.EV_ABS, Code: evdev.ABS_HAT0Y, Value: -1})
	apply(d, evdev.InputEvent{Type: evdev.EV_ABS, Code: evdev.ABS_Z, Value: 200})
	apply(d, evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.KEY_A, Value: 1})

	snap := d.state.snapshot(0, "test", true)
	assert.True(t, snap.Buttons[domain.ButtonA].Pressed)
	assert.True(t, snap.Buttons[domain.ButtonUp].Pressed)
	assert.InDelta(t, 200.0/255.0, snap.Buttons[domain.ButtonLT].Value, 1e-9)

	apply(d, evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.BTN_SOUTH, Value: 0})
	apply(d, evdev.InputEvent{Type: evdev.EV_ABS, Code: evdev.ABS_HAT0Y, Value: 0})
	snap = d.state.snapshot(0, "test", true)
	assert.False(t, snap.Buttons[domain.ButtonA].Pressed)
	assert.False(t, snap.Buttons[domain.ButtonUp].Pressed)
}

func TestApply_AutorepeatStaysPressed(t *testing.T) {
	d := &device{}
	apply(d, evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.BTN_START, Value: 2})
	assert.True(t, d.state.buttons[domain.ButtonStart].Pressed)
}

func TestSource_MissingDevicesYieldNoPads(t *testing.T) {
	s := New(WithDevices("/nonexistent/event99"))

	pads, err := s.Gamepads()
	require.NoError(t, err)
	assert.Empty(t, pads)

	require.NoError(t, s.Close())
	_, err = s.Gamepads()
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}
