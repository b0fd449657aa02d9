package di

import (
	"context"
	"fmt"

	"sentinel-agent/internal/application/port/input"
	"sentinel-agent/internal/application/port/output"
	"sentinel-agent/internal/config"
	"sentinel-agent/internal/infrastructure/audit"
	rodadapter "sentinel-agent/internal/infrastructure/browser/rod"
	"sentinel-agent/internal/infrastructure/logger"
	"sentinel-agent/internal/usecase/agent"
	"sentinel-agent/internal/usecase/approval"
	"sentinel-agent/internal/usecase/debounce"
	"sentinel-agent/internal/usecase/keymap"
)

type Container struct {
	Page   output.PagePort
	Audit  output.AuditPort
	Logger output.LoggerPort
	Agent  input.AgentRunner
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	log, err := logger.NewLoggerAdapter("log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	trust, err := approval.NewTrustList(cfg.Trust.Tools, cfg.Trust.Prefixes, cfg.Trust.Patterns)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to build trust list: %w", err)
	}
	if trust.IsEmpty() {
		log.Warn("trust list is empty, nothing will be auto-approved")
	}

	patterns := approval.DefaultPatterns()
	if len(cfg.Trust.ExtraPhrases) > 0 {
		extra, err := approval.CompilePatterns(cfg.Trust.ExtraPhrases)
		if err != nil {
			log.Close()
			return nil, fmt.Errorf("failed to compile extraction phrases: %w", err)
		}
		patterns = append(patterns, extra...)
	}

	policy := approval.NewPolicy(trust, patterns, cfg.Trust.AffirmativeLabels)
	deb := debounce.New(cfg.Watcher.Cooldown())

	browserCfg := rodadapter.DefaultConfig()
	browserCfg.ControlURL = cfg.Browser.ControlURL
	browserCfg.PageURL = cfg.Browser.PageURL
	browserCfg.Headless = cfg.Browser.Headless
	browserCfg.Rule = keymap.DefaultRule()

	page, err := rodadapter.NewPageAdapter(ctx, browserCfg)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to attach browser: %w", err)
	}

	var auditStore output.AuditPort
	if cfg.Audit.Enabled {
		auditStore, err = audit.NewSQLiteStore(cfg.Audit.DBPath)
		if err != nil {
			page.Close()
			log.Close()
			return nil, fmt.Errorf("failed to open audit store: %w", err)
		}
	}

	runner := agent.New(page, policy, deb, auditStore, log, agent.Options{
		RemapEnabled:        cfg.Remap.Enabled,
		ScreenshotOnApprove: cfg.Watcher.ScreenshotOnApprove,
		ScreenshotDir:       cfg.Watcher.ScreenshotDir,
	})

	return &Container{
		Page:   page,
		Audit:  auditStore,
		Logger: log,
		Agent:  runner,
	}, nil
}

func (c *Container) Close() {
	if c.Page != nil {
		c.Page.Close()
	}
	if c.Audit != nil {
		_ = c.Audit.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Close()
	}
}
