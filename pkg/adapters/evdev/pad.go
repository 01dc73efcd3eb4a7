package evdev

import "github.com/aretw0/keyseq/pkg/domain"

// DeviceInfo describes an input device found during discovery.
type DeviceInfo struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Gamepad bool   `json:"gamepad"`
	Virtual bool   `json:"virtual"`
}

// padState accumulates evdev events into a standard-layout snapshot.
type padState struct {
	buttons [domain.StandardButtonCount]domain.Button
}

func (p *padState) setButton(index int, pressed bool) {
	if index < 0 || index >= len(p.buttons) {
		return
	}
	p.buttons[index].Pressed = pressed
}

// setAnalog stores a reading already normalized to 0..1.
func (p *padState) setAnalog(index int, value float64) {
	if index < 0 || index >= len(p.buttons) {
		return
	}
	switch {
	case value < 0:
		value = 0
	case value > 1:
		value = 1
	}
	p.buttons[index].Value = value
}

// setHat maps a d-pad axis reading (-1, 0, 1) onto its two buttons.
func (p *padState) setHat(negative, positive int, value int32) {
	p.setButton(negative, value < 0)
	p.setButton(positive, value > 0)
}

func (p *padState) snapshot(index int, id string, connected bool) domain.Gamepad {
	buttons := make([]domain.Button, len(p.buttons))
	copy(buttons, p.buttons[:])
	return domain.Gamepad{Index: index, ID: id, Connected: connected, Buttons: buttons}
}

// normalize scales a raw axis value into 0..1 given its range.
func normalize(value, minimum, maximum int32) float64 {
	if maximum <= minimum {
		if value > 0 {
			return 1
		}
		return 0
	}
	return float64(value-minimum) / float64(maximum-minimum)
}
