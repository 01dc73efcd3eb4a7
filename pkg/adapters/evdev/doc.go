// Package evdev polls Linux gamepads through the kernel evdev interface and
// exposes them as a ports.GamepadSource laid out in the standard button order.
//
// On other platforms the source reports domain.ErrSourceUnavailable.
package evdev
