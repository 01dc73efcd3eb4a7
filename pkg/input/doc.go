/*
Package input turns raw device events into domain tokens.

Keyboard presses are pushed and normalized one by one. Gamepads are polled
once per frame and reduced to button-down activations by an EdgeDetector.
Sources bundles both behind one Start/Stop lifecycle, so a listener with
gamepad support and one without differ only by configuration.
*/
package input
