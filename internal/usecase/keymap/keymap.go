package keymap

import "sentinel-agent/internal/domain/entity"

// Rule describes the Enter remap: which key is intercepted, which
// modifiers let the event pass through untouched, and which modifier the
// substitute event asserts. The injected page hook is rendered from this
// rule, and the same logic backs the Go-side tests and diagnostics.
type Rule struct {
	Key         string
	Code        string
	KeyCode     int
	AssertShift bool
}

// DefaultRule turns a bare Enter into Shift+Enter.
func DefaultRule() Rule {
	return Rule{
		Key:         "Enter",
		Code:        "Enter",
		KeyCode:     13,
		AssertShift: true,
	}
}

// AppliesTo reports whether the rule rewrites the given event on the
// given surface. Any of Ctrl, Meta or Shift held means the user asked
// for the host page's own binding, so the event passes through; targets
// other than multiline text controls and contenteditable regions are
// never touched.
func (r Rule) AppliesTo(ev entity.KeyEvent, surface entity.InputSurface) bool {
	if surface != entity.SurfaceTextArea && surface != entity.SurfaceEditable {
		return false
	}
	if ev.Key != r.Key {
		return false
	}
	if ev.Ctrl || ev.Meta || ev.Shift {
		return false
	}
	return true
}

// Substitute builds the replacement event for a suppressed keydown:
// identical key identity, Shift asserted.
func (r Rule) Substitute(ev entity.KeyEvent) entity.KeyEvent {
	out := ev
	if r.AssertShift {
		out.Shift = true
	}
	return out
}
