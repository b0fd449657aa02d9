package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"sentinel-agent/internal/application/port/input"
	"sentinel-agent/internal/application/port/output"
	"sentinel-agent/internal/domain/entity"
	"sentinel-agent/internal/usecase/approval"
	"sentinel-agent/internal/usecase/debounce"
)

var _ input.AgentRunner = (*Agent)(nil)

// Options tune the supplementary behavior around the core loop.
type Options struct {
	RemapEnabled        bool
	ScreenshotOnApprove bool
	ScreenshotDir       string
}

// Agent wires the change watcher, the debounce, the approval policy and
// the key remap together. All mutable state (activation flag, debounce
// timestamp) lives on the instance, so separate agents never interfere.
type Agent struct {
	page      output.PagePort
	policy    *approval.Policy
	debouncer *debounce.Debouncer
	audit     output.AuditPort
	logger    output.LoggerPort
	opts      Options

	active atomic.Bool
}

// New builds an agent. audit may be nil to disable the decision trail.
func New(page output.PagePort, policy *approval.Policy, deb *debounce.Debouncer,
	audit output.AuditPort, logger output.LoggerPort, opts Options) *Agent {
	return &Agent{
		page:      page,
		policy:    policy,
		debouncer: deb,
		audit:     audit,
		logger:    logger,
		opts:      opts,
	}
}

// Start installs the page hooks. It is idempotent: only the first call
// in a session installs anything, later calls log a skip notice and
// return nil.
func (a *Agent) Start(ctx context.Context) error {
	if !a.active.CompareAndSwap(false, true) {
		a.logger.Info("sentinel already active, skipping startup")
		return nil
	}

	err := a.page.InstallWatcher(ctx, func() {
		a.onMutation(ctx)
	})
	if err != nil {
		a.active.Store(false)
		return fmt.Errorf("install watcher: %w", err)
	}

	if a.opts.RemapEnabled {
		err = a.page.InstallKeyRemap(ctx, func(ev entity.KeyEvent) {
			a.logger.Debug("enter remapped to shift+enter", "key", ev.Key, "code", ev.Code)
		})
		if err != nil {
			a.active.Store(false)
			return fmt.Errorf("install key remap: %w", err)
		}
	}

	a.logger.Info("sentinel active",
		"cooldown", a.debouncer.Cooldown().String(),
	)
	return nil
}

// onMutation is the per-batch evaluation step. Any failure inside it is
// logged and swallowed: the watcher must keep running for the rest of
// the page session.
func (a *Agent) onMutation(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("evaluation panicked", "panic", fmt.Sprint(r))
		}
	}()

	if !a.debouncer.Allow(time.Now()) {
		return
	}

	snap, err := a.page.CaptureDialog(ctx)
	if err != nil {
		a.logger.Error("evaluation failed", "error", err.Error())
		return
	}
	a.apply(ctx, a.policy.Evaluate(snap), snap.Description)
}

// EvaluateOnce runs the policy against the current page state without
// clicking anything and without consuming the debounce window.
func (a *Agent) EvaluateOnce(ctx context.Context) (entity.Decision, error) {
	snap, err := a.page.CaptureDialog(ctx)
	if err != nil {
		return entity.Decision{}, fmt.Errorf("capture dialog: %w", err)
	}
	return a.policy.Evaluate(snap), nil
}

func (a *Agent) apply(ctx context.Context, d entity.Decision, dialogText string) {
	switch d.Kind {
	case entity.DecisionNone:
		// Steady state between permission requests; stay quiet.
		return

	case entity.DecisionMalformed:
		a.logger.Error("permission dialog has unexpected shape",
			"tool", d.ToolName, "reason", d.Reason)
		a.record(ctx, d, dialogText)

	case entity.DecisionSkip:
		a.logger.Info("tool not trusted, leaving dialog for the user",
			"tool", d.ToolName)
		a.record(ctx, d, dialogText)

	case entity.DecisionApprove:
		if err := a.page.ClickControl(ctx, d.Control); err != nil {
			a.logger.Error("failed to click affirmative control",
				"tool", d.ToolName, "error", err.Error())
			return
		}
		a.logger.Info("tool auto-approved", "tool", d.ToolName)
		a.record(ctx, d, dialogText)
		if a.opts.ScreenshotOnApprove {
			a.captureApproval(ctx, d.ToolName)
		}
	}
}

func (a *Agent) record(ctx context.Context, d entity.Decision, dialogText string) {
	if a.audit == nil {
		return
	}

	pageURL := ""
	if info, err := a.page.Info(ctx); err == nil {
		pageURL = info.URL
	}

	err := a.audit.Record(ctx, output.AuditRecord{
		ToolName: d.ToolName,
		Decision: d.Kind,
		Dialog:   dialogText,
		Reason:   d.Reason,
		PageURL:  pageURL,
	})
	if err != nil {
		a.logger.Warn("failed to record decision", "error", err.Error())
	}
}

func (a *Agent) captureApproval(ctx context.Context, tool string) {
	shot, err := a.page.Screenshot(ctx)
	if err != nil {
		a.logger.Warn("approval screenshot failed", "error", err.Error())
		return
	}

	dir := a.opts.ScreenshotDir
	if dir == "" {
		dir = "screenshots"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		a.logger.Warn("cannot create screenshot dir", "error", err.Error())
		return
	}

	name := fmt.Sprintf("%s_%s.%s", time.Now().Format("2006-01-02_15-04-05"), tool, shot.Format)
	if err := os.WriteFile(filepath.Join(dir, name), shot.Data, 0o644); err != nil {
		a.logger.Warn("cannot write screenshot", "error", err.Error())
	}
}
