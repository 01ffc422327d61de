// Package viz renders a running simulation in the terminal and exports charts.
//
//   - [Canvas]: Braille-based pixel canvas, 2x4 dots per cell
//   - [Scene]: layered drawing of guides, reference line and object
//   - [Model]: Bubble Tea program fed by session snapshots
//   - [PlotASCII], [SavePNG]: position vs reference charts for headless runs
//
// # Key Bindings
//
//	Space - Start/Stop
//	R     - Restart from the bottom of the range
//	Tab   - Select the next parameter
//	Up/K  - Increase the selected parameter by 10%
//	Down/J- Decrease the selected parameter by 10%
//	Q     - Quit
package viz
