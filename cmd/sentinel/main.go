package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sentinel-agent/internal/application/port/output"
	"sentinel-agent/internal/config"
	"sentinel-agent/internal/di"
	"sentinel-agent/internal/domain/entity"
	"sentinel-agent/internal/infrastructure/audit"
	"sentinel-agent/internal/infrastructure/env"
)

func openAudit(cfg *config.Config) (output.AuditPort, error) {
	return audit.NewSQLiteStore(cfg.Audit.DBPath)
}

var (
	version    = "0.1.0"
	configPath string
)

func main() {
	root := &cobra.Command{
		Use:   "sentinel",
		Short: "Sentinel auto-approves trusted tool dialogs on a chat page",
		Long: "Sentinel attaches to a running chat web page, auto-approves " +
			"tool-permission dialogs for trusted tools, and remaps bare Enter " +
			"to Shift+Enter so Enter inserts a newline instead of submitting.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to config.yaml (default: ~/.sentinel/config.yaml)")

	root.AddCommand(initCmd())
	root.AddCommand(runCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(logCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load config (run `sentinel init` first): %w", err)
	}

	// One-off overrides for the attach target.
	envService := env.NewEnvService()
	if v := envService.Get("SENTINEL_CONTROL_URL"); v != "" {
		cfg.Browser.ControlURL = v
	}
	if v := envService.Get("SENTINEL_PAGE_URL"); v != "" {
		cfg.Browser.PageURL = v
	}
	cfg.Browser.Headless = envService.GetBool("SENTINEL_HEADLESS", cfg.Browser.Headless)
	if d := envService.GetDuration("SENTINEL_COOLDOWN", cfg.Watcher.Cooldown()); d != cfg.Watcher.Cooldown() {
		cfg.Watcher.CooldownMs = int(d / time.Millisecond)
	}

	return cfg, nil
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config already exists at %s", path)
			}
			if err := config.Save(path, config.Defaults()); err != nil {
				return err
			}
			color.New(color.FgGreen).Printf("✓ wrote %s\n", path)
			fmt.Println("Edit the trust list before running the sentinel.")
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Attach to the chat page and watch for permission dialogs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			container, err := di.NewContainer(ctx, cfg)
			if err != nil {
				return err
			}
			defer container.Close()

			if err := container.Agent.Start(ctx); err != nil {
				return err
			}

			info, err := container.Page.Info(ctx)
			if err == nil {
				color.New(color.FgCyan, color.Bold).Printf("Sentinel attached: %s\n", info.URL)
			}
			fmt.Println("Watching for permission dialogs. Ctrl+C to stop.")

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-sig:
			case <-ctx.Done():
			}

			fmt.Println("\nStopping.")
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Evaluate the current page once without clicking anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			container, err := di.NewContainer(ctx, cfg)
			if err != nil {
				return err
			}
			defer container.Close()

			decision, err := container.Agent.EvaluateOnce(ctx)
			if err != nil {
				return err
			}

			printDecision(decision)
			return nil
		},
	}
}

func printDecision(d entity.Decision) {
	switch d.Kind {
	case entity.DecisionNone:
		fmt.Println("No permission dialog on the page.")
	case entity.DecisionApprove:
		color.New(color.FgGreen).Printf("Would approve: %s\n", d.ToolName)
	case entity.DecisionSkip:
		color.New(color.FgYellow).Printf("Would skip: %s (%s)\n", d.ToolName, d.Reason)
	case entity.DecisionMalformed:
		color.New(color.FgRed).Printf("Dialog present but malformed: %s\n", d.Reason)
	}
}

func logCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent approval decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Audit.Enabled {
				return fmt.Errorf("audit trail is disabled in the config")
			}

			store, err := openAudit(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Println("No decisions recorded yet.")
				return nil
			}

			for _, rec := range recs {
				stamp := rec.CreatedAt.Format("2006-01-02 15:04:05")
				switch rec.Decision {
				case entity.DecisionApprove:
					color.New(color.FgGreen).Printf("%s  approved  %s\n", stamp, rec.ToolName)
				case entity.DecisionSkip:
					color.New(color.FgYellow).Printf("%s  skipped   %s\n", stamp, rec.ToolName)
				default:
					color.New(color.FgRed).Printf("%s  %-9s %s\n", stamp, rec.Decision, rec.Reason)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of decisions to show")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sentinel version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sentinel %s\n", version)
		},
	}
}
