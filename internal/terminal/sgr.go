package terminal

func (in *Interpreter) sgr(a *Action) {
	g := in.grid
	params := a.Params
	if len(params) == 0 {
		g.ResetAttributes()
		return
	}

	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			g.ResetAttributes()
		case p == 1:
			g.AddAttribute(AttrBold)
		case p == 2:
			g.AddAttribute(AttrDim)
		case p == 3:
			g.AddAttribute(AttrItalic)
		case p == 4:
			// 4:0 turns underline off; other sub-styles map to plain underline.
			if end := groupEnd(a, i); end > i {
				if params[i+1] == 0 {
					g.RemoveAttribute(AttrUnderline)
				} else {
					g.AddAttribute(AttrUnderline)
				}
				i = end
				continue
			}
			g.AddAttribute(AttrUnderline)
		case p == 5 || p == 6:
			g.AddAttribute(AttrBlink)
		case p == 7:
			g.AddAttribute(AttrInverse)
		case p == 8:
			g.AddAttribute(AttrHidden)
		case p == 9:
			g.AddAttribute(AttrStrike)
		case p == 21:
			g.AddAttribute(AttrUnderline)
		case p == 22:
			g.RemoveAttribute(AttrBold | AttrDim)
		case p == 23:
			g.RemoveAttribute(AttrItalic)
		case p == 24:
			g.RemoveAttribute(AttrUnderline)
		case p == 25:
			g.RemoveAttribute(AttrBlink)
		case p == 27:
			g.RemoveAttribute(AttrInverse)
		case p == 28:
			g.RemoveAttribute(AttrHidden)
		case p == 29:
			g.RemoveAttribute(AttrStrike)
		case p >= 30 && p <= 37:
			g.SetForeground(ColorFromIndex(p - 30))
		case p == 38:
			var c Color
			var ok bool
			c, i, ok = extendedColor(a, i)
			if ok {
				g.SetForeground(c)
			}
		case p == 39:
			g.SetForeground(DefaultForeground)
		case p >= 40 && p <= 47:
			g.SetBackground(ColorFromIndex(p - 40))
		case p == 48:
			var c Color
			var ok bool
			c, i, ok = extendedColor(a, i)
			if ok {
				g.SetBackground(c)
			}
		case p == 49:
			g.SetBackground(DefaultBackground)
		case p >= 90 && p <= 97:
			g.SetForeground(ColorFromIndex(p - 90 + 8))
		case p >= 100 && p <= 107:
			g.SetBackground(ColorFromIndex(p - 100 + 8))
		default:
			// Skip sub-parameters of anything unrecognized.
			i = groupEnd(a, i)
		}
	}
}

// groupEnd returns the index of the last parameter in the colon-separated
// group starting at i.
func groupEnd(a *Action, i int) int {
	for i+1 < len(a.Params) && i+1 < 32 && a.ColonMask&(1<<(i+1)) != 0 {
		i++
	}
	return i
}

// extendedColor parses the color following a 38 or 48 at index i, in either
// the semicolon form (38;5;n / 38;2;r;g;b) or the colon form (38:5:n /
// 38:2:r:g:b / 38:2:cs:r:g:b). It returns the index of the last consumed
// parameter.
func extendedColor(a *Action, i int) (Color, int, bool) {
	params := a.Params

	if end := groupEnd(a, i); end > i {
		sub := params[i+1 : end+1]
		switch {
		case sub[0] == 5 && len(sub) >= 2:
			return ColorFromIndex(clamp(sub[1], 0, 255)), end, true
		case sub[0] == 2 && len(sub) >= 4:
			rgb := sub[len(sub)-3:]
			return ColorFromRGB(clampColorValue(rgb[0]), clampColorValue(rgb[1]), clampColorValue(rgb[2])), end, true
		}
		return Color{}, end, false
	}

	if i+1 >= len(params) {
		return Color{}, i, false
	}
	switch params[i+1] {
	case 5:
		if i+2 < len(params) {
			return ColorFromIndex(clamp(params[i+2], 0, 255)), i + 2, true
		}
	case 2:
		if i+4 < len(params) {
			return ColorFromRGB(
				clampColorValue(params[i+2]),
				clampColorValue(params[i+3]),
				clampColorValue(params[i+4]),
			), i + 4, true
		}
	}
	return Color{}, len(params), false
}

// clampColorValue clamps an integer to valid RGB range (0-255).
func clampColorValue(v int) uint8 {
	return uint8(clamp(v, 0, 255))
}
