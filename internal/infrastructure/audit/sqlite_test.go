package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel-agent/internal/application/port/output"
	"sentinel-agent/internal/domain/entity"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state", "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_RecordAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Minute).Truncate(time.Second)
	decisions := []output.AuditRecord{
		{ToolName: "Bash", Decision: entity.DecisionApprove, Reason: "trust list match", PageURL: "https://chat.example", CreatedAt: base},
		{ToolName: "Curl", Decision: entity.DecisionSkip, Reason: "tool not on the trust list", CreatedAt: base.Add(time.Second)},
		{ToolName: "", Decision: entity.DecisionMalformed, Reason: "no tool name matched the dialog description", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, rec := range decisions {
		require.NoError(t, store.Record(ctx, rec))
	}

	recs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	// Newest first.
	assert.Equal(t, entity.DecisionMalformed, recs[0].Decision)
	assert.Equal(t, "Curl", recs[1].ToolName)
	assert.Equal(t, "Bash", recs[2].ToolName)
	assert.Equal(t, "https://chat.example", recs[2].PageURL)
}

func TestSQLiteStore_RecentLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, output.AuditRecord{
			ToolName:  "Bash",
			Decision:  entity.DecisionApprove,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	recs, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recs, 5, "non-positive limit falls back to the default")
}

func TestSQLiteStore_EmptyRecent(t *testing.T) {
	store := newTestStore(t)

	recs, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSQLiteStore_DefaultsCreatedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, output.AuditRecord{
		ToolName: "Bash",
		Decision: entity.DecisionApprove,
	}))

	recs, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.WithinDuration(t, time.Now(), recs[0].CreatedAt, time.Minute)
}
