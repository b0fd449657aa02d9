package input

import (
	"context"

	"sentinel-agent/internal/domain/entity"
)

// AgentRunner is the primary entry point. Start is idempotent: the first
// call installs the page hooks, later calls are no-ops.
type AgentRunner interface {
	Start(ctx context.Context) error

	// EvaluateOnce runs a single policy evaluation against the current
	// page state, bypassing the debounce. Used by the dry-run command.
	EvaluateOnce(ctx context.Context) (entity.Decision, error)
}
