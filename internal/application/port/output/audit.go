package output

import (
	"context"
	"time"

	"sentinel-agent/internal/domain/entity"
)

// AuditRecord is one persisted approval decision.
type AuditRecord struct {
	ID        int64
	ToolName  string
	Decision  entity.DecisionKind
	Dialog    string
	Reason    string
	PageURL   string
	CreatedAt time.Time
}

// AuditPort persists approval decisions for later inspection.
type AuditPort interface {
	Record(ctx context.Context, rec AuditRecord) error
	Recent(ctx context.Context, limit int) ([]AuditRecord, error)
	Close() error
}
