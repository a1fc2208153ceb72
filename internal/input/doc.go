// Package input translates decoded keyboard and mouse events into the byte
// sequences a terminal application expects on its input.
//
// The types here describe events independently of any UI toolkit:
//
//   - Key and KeyEvent: a key press with modifiers
//   - Modifier: Ctrl, Alt, Shift and Meta
//   - MouseEvent: a button press, release, motion or wheel step in cells
//   - Modes: the input-affecting modes the application has switched on
//
// EncodeKey, EncodeMouse, EncodePaste and EncodeFocus consult Modes so that,
// for example, arrow keys switch to SS3 form in application cursor mode and
// pastes are bracketed when the application asked for it.
package input
