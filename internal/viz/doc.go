// Package viz draws a running star system in the terminal.
//
// [Model] is a Bubble Tea model that advances a [starsystem.StarSystem] on
// every frame and projects the bodies and their trails onto the x-y plane of
// a braille [Canvas]. A side panel shows energy, drift and momentum.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	.     - Single step while paused
//	R     - Reset to the initial state
//	+/-   - Zoom, 0 refits
//	[ ]   - Halve/double steps per frame
//	T     - Toggle trails
//	Q     - Quit
package viz
