package input

// MouseMode is the mouse reporting mode requested by the application.
type MouseMode uint8

const (
	// MouseNone disables mouse reporting.
	MouseNone MouseMode = iota
	// MouseX10 reports button presses only (mode 9).
	MouseX10
	// MouseNormal reports presses and releases (mode 1000).
	MouseNormal
	// MouseDrag also reports motion while a button is held (mode 1002).
	MouseDrag
	// MouseAny reports all motion (mode 1003).
	MouseAny
)

// Modes are the terminal modes that change how input is encoded.
type Modes struct {
	AppCursor      bool // DECCKM
	AppKeypad      bool // DECKPAM
	BracketedPaste bool // mode 2004
	FocusEvents    bool // mode 1004
	Mouse          MouseMode
	MouseSGR       bool // mode 1006
}
