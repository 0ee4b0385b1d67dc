// Package viz provides the terminal live view of a soft-body scene.
//
// The view is a Bubble Tea program:
//
//   - [Model]: steps the scene one frame per tick and renders it
//   - [Canvas]: Braille dot canvas the meshes are drawn on
//   - [Theme]: colour schemes, cycled with T
//
// # Key Bindings
//
//	W A S D / arrows  - point gravity up, left, down, right
//	Left mouse        - attract toward the cursor
//	Right mouse       - repel from the cursor
//	Space             - pause/resume
//	R                 - reset bodies
//	P                 - write the current frame as SVG
//	T                 - cycle themes
//	Q                 - quit
package viz
