// Package viewer draws a terminal session on the local terminal with tcell
// and feeds keyboard, mouse, paste, focus and resize events back to it.
//
// Mouse events go to the application when it enabled mouse reporting.
// Otherwise, or while Shift is held, the mouse selects text locally:
// drag for a character selection, Alt+drag for a block, a double or
// triple click for whole lines. Releasing the button copies the selection
// to the clipboard. Shift+PageUp and Shift+PageDown scroll the history.
package viewer
