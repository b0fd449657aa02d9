package entity

// KeyEvent mirrors the fields of a DOM keydown event that the remap rule
// cares about. Synthesized events carry the same key/code/keyCode as the
// original so downstream listeners cannot tell them apart except via the
// asserted modifier.
type KeyEvent struct {
	Key     string
	Code    string
	KeyCode int
	Ctrl    bool
	Meta    bool
	Shift   bool
	Alt     bool
}

// InputSurface classifies the event target as seen by the page hook.
type InputSurface string

const (
	SurfaceTextArea InputSurface = "textarea"
	SurfaceInput    InputSurface = "input"
	SurfaceEditable InputSurface = "contenteditable"
	SurfaceOther    InputSurface = "other"
)
