package widget

// MaxInputHeight caps the growth of the input box. Content taller than this scrolls.
const MaxInputHeight = 120

// Action is what a key press in the input box means to the widget.
type Action int

const (
	// ActionNone leaves the key to the input box.
	ActionNone Action = iota
	// ActionSubmit submits the current text.
	ActionSubmit
	// ActionNewline inserts a literal line break.
	ActionNewline
)

// KeyAction maps a key press to an Action. Plain Enter submits; Enter with a modifier (shift on the
// web, alt or ctrl+j in a terminal) inserts a newline.
func KeyAction(key string, modified bool) Action {
	if key != "enter" {
		return ActionNone
	}
	if modified {
		return ActionNewline
	}
	return ActionSubmit
}

// InputHeight returns the height the input box should take for the given content height, and
// whether the content overflows it.
func InputHeight(contentHeight int) (int, bool) {
	if contentHeight < 0 {
		return 0, false
	}
	if contentHeight > MaxInputHeight {
		return MaxInputHeight, true
	}
	return contentHeight, false
}
