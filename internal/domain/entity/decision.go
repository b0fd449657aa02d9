package entity

// DecisionKind classifies the outcome of one policy evaluation.
type DecisionKind string

const (
	// DecisionNone means no dialog was present. This is the normal steady
	// state between permission requests, not an error.
	DecisionNone DecisionKind = "none"

	// DecisionApprove means the tool is trusted and the affirmative
	// control should be clicked.
	DecisionApprove DecisionKind = "approve"

	// DecisionSkip means the dialog is well-formed but the tool is not
	// trusted; it is left for the human to resolve.
	DecisionSkip DecisionKind = "skip"

	// DecisionMalformed means a dialog was present but the tool name or
	// the affirmative control could not be located.
	DecisionMalformed DecisionKind = "malformed"
)

// Decision is the result of evaluating one DialogSnapshot.
type Decision struct {
	Kind     DecisionKind
	ToolName string
	// Control is the affirmative button to click when Kind is
	// DecisionApprove. Empty selector otherwise.
	Control DialogButton
	// Reason is a short human-readable note for logs and the audit trail.
	Reason string
}

// Handled reports whether a dialog was present and fully processed,
// regardless of whether it was approved or skipped.
func (d Decision) Handled() bool {
	return d.Kind == DecisionApprove || d.Kind == DecisionSkip
}
