// Package theme maps terminal colors to RGB.
//
// A Scheme holds the default foreground and background, cursor and
// selection colors and the 16 ANSI colors. Indexed colors 16-255 come from
// the xterm cube and gray ramp; direct RGB colors pass through unchanged.
//
// Schemes are built in (Dark, Light), chosen from the system appearance
// (Detect, SystemWatcher), or loaded from files written for other
// terminals:
//
//   - .toml: Alacritty
//   - .json: Windows Terminal (a single scheme or a settings.json)
//   - .yaml, .yml: base16 / tinted-theming
//   - .itermcolors: iTerm2
package theme
