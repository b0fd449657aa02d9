package approval

import (
	"strings"

	"sentinel-agent/internal/domain/entity"
)

// DefaultAffirmativeLabels are button labels recognized as the primary
// affirmative control, checked in order against each button in the
// dialog. Matching is case-insensitive on the trimmed label.
func DefaultAffirmativeLabels() []string {
	return []string{"yes", "allow", "approve", "run", "はい", "実行"}
}

// Policy is the pure approve/skip decision over a dialog snapshot. It
// never touches the live page; the agent applies its decisions through
// the page port.
type Policy struct {
	trust       *TrustList
	patterns    []Pattern
	affirmative []string
}

func NewPolicy(trust *TrustList, patterns []Pattern, affirmativeLabels []string) *Policy {
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}
	if len(affirmativeLabels) == 0 {
		affirmativeLabels = DefaultAffirmativeLabels()
	}
	labels := make([]string, 0, len(affirmativeLabels))
	for _, l := range affirmativeLabels {
		labels = append(labels, strings.ToLower(strings.TrimSpace(l)))
	}
	return &Policy{trust: trust, patterns: patterns, affirmative: labels}
}

// Evaluate decides what to do with the captured dialog state.
//
// No dialog is the common case and stays cheap: DecisionNone, nothing
// else computed. A dialog whose description matches no pattern, or which
// has no affirmative control, is malformed; the policy reports it and
// clicks nothing rather than guessing.
func (p *Policy) Evaluate(snap entity.DialogSnapshot) entity.Decision {
	if !snap.Present {
		return entity.Decision{Kind: entity.DecisionNone}
	}

	tool := ExtractToolName(p.patterns, snap.Description)
	if tool == "" {
		return entity.Decision{
			Kind:   entity.DecisionMalformed,
			Reason: "no tool name matched the dialog description",
		}
	}

	control, ok := p.findAffirmative(snap.Buttons)
	if !ok {
		return entity.Decision{
			Kind:     entity.DecisionMalformed,
			ToolName: tool,
			Reason:   "no affirmative control in the dialog",
		}
	}

	if !p.trust.Trusted(tool) {
		return entity.Decision{
			Kind:     entity.DecisionSkip,
			ToolName: tool,
			Reason:   "tool not on the trust list",
		}
	}

	return entity.Decision{
		Kind:     entity.DecisionApprove,
		ToolName: tool,
		Control:  control,
		Reason:   "trust list match",
	}
}

func (p *Policy) findAffirmative(buttons []entity.DialogButton) (entity.DialogButton, bool) {
	for _, b := range buttons {
		label := strings.ToLower(strings.TrimSpace(b.Label))
		for _, want := range p.affirmative {
			if label == want || strings.HasPrefix(label, want+" ") || strings.HasPrefix(label, want+",") {
				return b, true
			}
		}
	}
	return entity.DialogButton{}, false
}
