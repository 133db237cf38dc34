// Package viz provides the terminal front-end for the π lab.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [RunInteractive]: preset menu and parameter editor
//   - [RunLive]: both experiments live at 60fps
//   - [Canvas]: Braille pixel canvas for high-fidelity rendering
//   - [Camera]: orbitable perspective projection for the 3D board
//   - Theme selection with 5 built-in color schemes
//
// # Key Bindings
//
//	Space - Pause/Resume both engines
//	Tab   - Switch board/blocks screens
//	R     - Reset and replay from the seeds
//	M     - Cycle the block mass ratio
//	T     - Cycle color themes
//	S     - Toggle sound
//	?     - Show help overlay
package viz
