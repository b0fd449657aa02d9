package output

import (
	"context"

	"sentinel-agent/internal/domain/entity"
)

// MutationHandler is invoked once per batch of structural page changes.
type MutationHandler func()

// RemapReport is invoked when the injected key hook suppresses a bare
// Enter and dispatches its substitute. Used for diagnostics only.
type RemapReport func(ev entity.KeyEvent)

// PagePort is the boundary to the live chat page. All methods operate on
// the single page the agent attached to.
type PagePort interface {
	// Info returns the attached page's URL and title.
	Info(ctx context.Context) (entity.PageInfo, error)

	// InstallWatcher injects a mutation observer on the page root and
	// routes every mutation batch to handler. Installing twice is an
	// error; the caller guards with its activation flag.
	InstallWatcher(ctx context.Context, handler MutationHandler) error

	// InstallKeyRemap injects the capture-phase keydown hook that turns
	// bare Enter into a synthesized Shift+Enter. Each performed remap is
	// reported back through report.
	InstallKeyRemap(ctx context.Context, report RemapReport) error

	// CaptureDialog scans the document for a modal-role container and
	// returns its snapshot. A snapshot with Present=false is the normal
	// steady state, not an error.
	CaptureDialog(ctx context.Context) (entity.DialogSnapshot, error)

	// ClickControl clicks the given control inside the current dialog.
	ClickControl(ctx context.Context, control entity.DialogButton) error

	// Screenshot captures the current page for the audit trail.
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	Close()
}
