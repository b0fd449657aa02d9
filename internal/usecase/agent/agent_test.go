package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel-agent/internal/application/port/output"
	"sentinel-agent/internal/domain/entity"
	"sentinel-agent/internal/usecase/approval"
	"sentinel-agent/internal/usecase/debounce"
)

// fakePage implements output.PagePort in memory. Mutations are fired by
// the test through the captured handler, exactly as the injected
// observer would.
type fakePage struct {
	snapshot entity.DialogSnapshot
	captures int

	watcherInstalls int
	remapInstalls   int
	handler         output.MutationHandler

	clicks     []entity.DialogButton
	clickErr   error
	captureErr error
}

func (f *fakePage) Info(ctx context.Context) (entity.PageInfo, error) {
	return entity.PageInfo{URL: "https://chat.example/session"}, nil
}

func (f *fakePage) InstallWatcher(ctx context.Context, handler output.MutationHandler) error {
	f.watcherInstalls++
	f.handler = handler
	return nil
}

func (f *fakePage) InstallKeyRemap(ctx context.Context, report output.RemapReport) error {
	f.remapInstalls++
	return nil
}

func (f *fakePage) CaptureDialog(ctx context.Context) (entity.DialogSnapshot, error) {
	f.captures++
	if f.captureErr != nil {
		return entity.DialogSnapshot{}, f.captureErr
	}
	return f.snapshot, nil
}

func (f *fakePage) ClickControl(ctx context.Context, control entity.DialogButton) error {
	if f.clickErr != nil {
		return f.clickErr
	}
	f.clicks = append(f.clicks, control)
	return nil
}

func (f *fakePage) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	return &entity.Screenshot{Data: []byte{1}, Format: "jpeg"}, nil
}

func (f *fakePage) Close() {}

type memAudit struct {
	records []output.AuditRecord
}

func (m *memAudit) Record(ctx context.Context, rec output.AuditRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *memAudit) Recent(ctx context.Context, limit int) ([]output.AuditRecord, error) {
	return m.records, nil
}

func (m *memAudit) Close() error { return nil }

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any)                   {}
func (nopLogger) Info(msg string, args ...any)                    {}
func (nopLogger) Warn(msg string, args ...any)                    {}
func (nopLogger) Error(msg string, args ...any)                   {}
func (l nopLogger) WithField(k string, v any) output.LoggerPort   { return l }
func (l nopLogger) WithFields(f map[string]any) output.LoggerPort { return l }
func (nopLogger) Close() error                                    { return nil }

func newTestAgent(t *testing.T, page *fakePage, audit output.AuditPort, cooldown time.Duration) *Agent {
	t.Helper()
	tl, err := approval.NewTrustList([]string{"Bash"}, []string{"Grep"}, nil)
	require.NoError(t, err)
	policy := approval.NewPolicy(tl, nil, nil)
	return New(page, policy, debounce.New(cooldown), audit, nopLogger{}, Options{RemapEnabled: true})
}

func trustedDialog() entity.DialogSnapshot {
	return entity.DialogSnapshot{
		Present:     true,
		Description: "Run Bash from shell",
		Buttons: []entity.DialogButton{
			{Label: "No", Selector: "#no"},
			{Label: "Yes", Selector: "#yes"},
		},
	}
}

func TestAgent_StartIsIdempotent(t *testing.T) {
	page := &fakePage{}
	a := newTestAgent(t, page, nil, time.Millisecond)
	ctx := context.Background()

	require.NoError(t, a.Start(ctx))
	require.NoError(t, a.Start(ctx))
	require.NoError(t, a.Start(ctx))

	assert.Equal(t, 1, page.watcherInstalls, "watcher installed once")
	assert.Equal(t, 1, page.remapInstalls, "key hook installed once")
}

func TestAgent_StartFailureAllowsRetry(t *testing.T) {
	page := &fakePage{}
	a := newTestAgent(t, page, nil, time.Millisecond)

	// Force the first install to fail through a page that errors once.
	failing := &failingPage{fakePage: page, failures: 1}
	a.page = failing

	assert.Error(t, a.Start(context.Background()))
	assert.NoError(t, a.Start(context.Background()), "flag must be released after a failed start")
	assert.Equal(t, 1, page.watcherInstalls)
}

type failingPage struct {
	*fakePage
	failures int
}

func (f *failingPage) InstallWatcher(ctx context.Context, handler output.MutationHandler) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("page went away")
	}
	return f.fakePage.InstallWatcher(ctx, handler)
}

func TestAgent_ApprovesTrustedTool(t *testing.T) {
	page := &fakePage{snapshot: trustedDialog()}
	audit := &memAudit{}
	a := newTestAgent(t, page, audit, time.Millisecond)
	ctx := context.Background()

	require.NoError(t, a.Start(ctx))
	page.handler()

	require.Len(t, page.clicks, 1)
	assert.Equal(t, "#yes", page.clicks[0].Selector)

	require.Len(t, audit.records, 1)
	assert.Equal(t, entity.DecisionApprove, audit.records[0].Decision)
	assert.Equal(t, "Bash", audit.records[0].ToolName)
	assert.Equal(t, "https://chat.example/session", audit.records[0].PageURL)
}

func TestAgent_SkipsUntrustedTool(t *testing.T) {
	page := &fakePage{snapshot: entity.DialogSnapshot{
		Present:     true,
		Description: "Run Curl from network",
		Buttons:     []entity.DialogButton{{Label: "Yes", Selector: "#yes"}},
	}}
	audit := &memAudit{}
	a := newTestAgent(t, page, audit, time.Millisecond)
	ctx := context.Background()

	require.NoError(t, a.Start(ctx))
	page.handler()

	assert.Empty(t, page.clicks, "skip must never click")
	require.Len(t, audit.records, 1)
	assert.Equal(t, entity.DecisionSkip, audit.records[0].Decision)
}

func TestAgent_MalformedDialogClicksNothing(t *testing.T) {
	page := &fakePage{snapshot: entity.DialogSnapshot{
		Present:     true,
		Description: "Unrecognized dialog text",
		Buttons:     []entity.DialogButton{{Label: "Yes", Selector: "#yes"}},
	}}
	audit := &memAudit{}
	a := newTestAgent(t, page, audit, time.Millisecond)
	ctx := context.Background()

	require.NoError(t, a.Start(ctx))
	page.handler()

	assert.Empty(t, page.clicks)
	require.Len(t, audit.records, 1)
	assert.Equal(t, entity.DecisionMalformed, audit.records[0].Decision)
}

func TestAgent_NoDialogIsQuiet(t *testing.T) {
	page := &fakePage{}
	audit := &memAudit{}
	a := newTestAgent(t, page, audit, time.Millisecond)
	ctx := context.Background()

	require.NoError(t, a.Start(ctx))
	page.handler()

	assert.Empty(t, page.clicks)
	assert.Empty(t, audit.records, "steady state is not recorded")
}

func TestAgent_DebounceDropsRapidBatches(t *testing.T) {
	page := &fakePage{snapshot: trustedDialog()}
	a := newTestAgent(t, page, nil, time.Hour)
	ctx := context.Background()

	require.NoError(t, a.Start(ctx))

	page.handler()
	page.handler()
	page.handler()

	assert.Equal(t, 1, page.captures, "only the first batch inside the window evaluates")
	assert.Len(t, page.clicks, 1)
}

func TestAgent_WatcherSurvivesEvaluationErrors(t *testing.T) {
	page := &fakePage{captureErr: errors.New("page detached")}
	a := newTestAgent(t, page, nil, time.Millisecond)
	ctx := context.Background()

	require.NoError(t, a.Start(ctx))

	assert.NotPanics(t, func() { page.handler() })

	// Recovery: the next batch after the cooldown evaluates again.
	page.captureErr = nil
	page.snapshot = trustedDialog()
	time.Sleep(2 * time.Millisecond)
	page.handler()

	assert.Len(t, page.clicks, 1)
}

func TestAgent_WatcherSurvivesClickErrors(t *testing.T) {
	page := &fakePage{snapshot: trustedDialog(), clickErr: errors.New("detached node")}
	audit := &memAudit{}
	a := newTestAgent(t, page, audit, time.Millisecond)
	ctx := context.Background()

	require.NoError(t, a.Start(ctx))
	assert.NotPanics(t, func() { page.handler() })
	assert.Empty(t, audit.records, "a failed click is not recorded as approved")
}

func TestAgent_EvaluateOnceDoesNotClick(t *testing.T) {
	page := &fakePage{snapshot: trustedDialog()}
	a := newTestAgent(t, page, nil, time.Millisecond)

	d, err := a.EvaluateOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.DecisionApprove, d.Kind)
	assert.Equal(t, "Bash", d.ToolName)
	assert.Empty(t, page.clicks, "dry run must not touch the page")
}
