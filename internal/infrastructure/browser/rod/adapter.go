package rod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"sentinel-agent/internal/application/port/output"
	"sentinel-agent/internal/domain/entity"
	"sentinel-agent/internal/usecase/keymap"
)

var _ output.PagePort = (*PageAdapter)(nil)

var (
	ErrNotAttached    = errors.New("not attached to a page")
	ErrNoMatchingPage = errors.New("no open page matches the configured URL")
	ErrNoControl      = errors.New("dialog control not found on the page")
)

const (
	defaultTimeout     = 10 * time.Second
	screenshotMaxWidth = 1024
)

// PageAdapter drives the single chat page the agent is attached to.
type PageAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	rule     keymap.Rule
	timeout  time.Duration
	closed   bool
}

type Config struct {
	// ControlURL attaches to a browser that is already running. Empty
	// launches a fresh one via the launcher.
	ControlURL string
	// PageURL selects the tab to attach to (prefix match), or the URL to
	// open when launching.
	PageURL  string
	Headless bool
	Timeout  time.Duration
	Rule     keymap.Rule
}

func DefaultConfig() Config {
	return Config{
		Headless: false,
		Timeout:  defaultTimeout,
		Rule:     keymap.DefaultRule(),
	}
}

// NewPageAdapter connects to the browser and binds to the chat page.
func NewPageAdapter(ctx context.Context, cfg Config) (*PageAdapter, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Rule.Key == "" {
		cfg.Rule = keymap.DefaultRule()
	}

	var (
		l   *launcher.Launcher
		url = cfg.ControlURL
	)
	if url == "" {
		l = launcher.New().
			Headless(cfg.Headless).
			NoSandbox(true).
			Delete("use-mock-keychain")

		launched, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		url = launched
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		if l != nil {
			l.Kill()
			l.Cleanup()
		}
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	a := &PageAdapter{
		browser:  browser,
		launcher: l,
		rule:     cfg.Rule,
		timeout:  cfg.Timeout,
	}

	page, err := a.bindPage(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.page = page

	return a, nil
}

// bindPage picks the target tab. Attaching prefers an existing tab whose
// URL starts with the configured one; launching opens it fresh.
func (a *PageAdapter) bindPage(cfg Config) (*rod.Page, error) {
	if cfg.ControlURL != "" {
		pages, err := a.browser.Pages()
		if err != nil {
			return nil, fmt.Errorf("failed to list pages: %w", err)
		}
		for _, p := range pages {
			info, err := p.Info()
			if err != nil {
				continue
			}
			if cfg.PageURL == "" || strings.HasPrefix(info.URL, cfg.PageURL) {
				return p, nil
			}
		}
		return nil, ErrNoMatchingPage
	}

	target := cfg.PageURL
	if target == "" {
		target = "about:blank"
	}
	page, err := a.browser.Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	page.WaitLoad()
	return page, nil
}

func (a *PageAdapter) Info(ctx context.Context) (entity.PageInfo, error) {
	if a.closed {
		return entity.PageInfo{}, ErrNotAttached
	}
	info, err := a.page.Info()
	if err != nil {
		return entity.PageInfo{}, fmt.Errorf("failed to read page info: %w", err)
	}
	return entity.PageInfo{URL: info.URL, Title: info.Title}, nil
}

// InstallWatcher exposes the mutation binding and injects the observer
// script, both for the current document and for future navigations so
// the hook survives SPA reloads.
func (a *PageAdapter) InstallWatcher(ctx context.Context, handler output.MutationHandler) error {
	if a.closed {
		return ErrNotAttached
	}

	_, err := a.page.Expose(mutationBinding, func(g gson.JSON) (interface{}, error) {
		handler()
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to expose mutation binding: %w", err)
	}

	return a.injectPersistent(observerScript)
}

// InstallKeyRemap renders the key hook from the remap rule and injects
// it as a capture-phase window listener.
func (a *PageAdapter) InstallKeyRemap(ctx context.Context, report output.RemapReport) error {
	if a.closed {
		return ErrNotAttached
	}

	_, err := a.page.Expose(remapBinding, func(g gson.JSON) (interface{}, error) {
		if report != nil {
			report(entity.KeyEvent{
				Key:     g.Get("key").Str(),
				Code:    g.Get("code").Str(),
				KeyCode: g.Get("keyCode").Int(),
			})
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to expose remap binding: %w", err)
	}

	script, err := renderKeyHook(a.rule)
	if err != nil {
		return err
	}
	return a.injectPersistent(script)
}

// injectPersistent runs the script now and registers it for every new
// document on this page.
func (a *PageAdapter) injectPersistent(script string) error {
	if _, err := a.page.Eval(script); err != nil {
		return fmt.Errorf("failed to inject script: %w", err)
	}
	if _, err := a.page.EvalOnNewDocument("(" + script + ")();"); err != nil {
		return fmt.Errorf("failed to register script for new documents: %w", err)
	}
	return nil
}

// Eval runs a JS function on the page and returns its result as a
// string. Used for diagnostics and fixtures, not by the core loop.
func (a *PageAdapter) Eval(js string) (string, error) {
	if a.closed {
		return "", ErrNotAttached
	}
	res, err := a.page.Eval(js)
	if err != nil {
		return "", fmt.Errorf("eval failed: %w", err)
	}
	return res.Value.Str(), nil
}

func (a *PageAdapter) CaptureDialog(ctx context.Context) (entity.DialogSnapshot, error) {
	if a.closed {
		return entity.DialogSnapshot{}, ErrNotAttached
	}

	res, err := a.page.Eval(dialogScript)
	if err != nil {
		return entity.DialogSnapshot{}, fmt.Errorf("failed to scan for dialog: %w", err)
	}

	return parseDialogHTML(res.Value.Str())
}

func (a *PageAdapter) ClickControl(ctx context.Context, control entity.DialogButton) error {
	if a.closed {
		return ErrNotAttached
	}
	if control.Selector == "" {
		return ErrNoControl
	}

	el, err := a.page.Timeout(a.timeout).ElementX(control.Selector)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNoControl, control.Selector)
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (a *PageAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	if a.closed {
		return nil, ErrNotAttached
	}

	imgBytes, err := a.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > screenshotMaxWidth {
		img = imaging.Resize(img, screenshotMaxWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (a *PageAdapter) Close() {
	if a.closed {
		return
	}
	a.closed = true
	if a.browser != nil && a.launcher != nil {
		// We launched this browser, so we own its lifetime.
		_ = a.browser.Close()
		a.launcher.Kill()
		a.launcher.Cleanup()
	}
}
