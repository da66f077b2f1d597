// cmd/pathway/main.go
//
// This is the entry point for the pathway client.
//
// Flow:
// 1. Scaffold ~/.pathway (config.yaml, logs/, state/, export/)
// 2. Load config (file, then PATHWAY_* env overrides)
// 3. Wire logger -> cache -> api client -> session -> reconciler
// 4. Launch the TUI

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/kindrove/pathway/internal/api"
	"github.com/kindrove/pathway/internal/cache"
	"github.com/kindrove/pathway/internal/config"
	"github.com/kindrove/pathway/internal/export"
	"github.com/kindrove/pathway/internal/logging"
	"github.com/kindrove/pathway/internal/reconcile"
	"github.com/kindrove/pathway/internal/session"
	"github.com/kindrove/pathway/internal/tui"
)

func main() {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving home directory: %v\n", err)
		os.Exit(1)
	}

	if err := config.InitAppDir(home); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing ~/.pathway: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(home)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogsDir(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	store, err := cache.New(cfg.StateDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening state cache: %v\n", err)
		os.Exit(1)
	}

	client := api.New(cfg.APIURL, cfg.APITimeout, log)
	sess := session.New(client, store, log)
	rec := reconcile.New(store, log)
	exporter := export.New(client, cfg.ExportDir(), log)

	// The URL is worth a line: "backend unreachable" reports almost always
	// turn out to be a stale api.url in config.yaml.
	log.Info("pathway starting", zap.String("api_url", cfg.APIURL))

	p := tea.NewProgram(
		tui.NewApp(cfg, log, client, sess, rec, exporter),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
