// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// parley is a local chat client with tool-calling support.
//
// It drives a streaming chat model, dispatches the model's tool calls to
// registered providers, and renders provider HTML through a trust-classified
// sanitization pipeline. Tool output never reaches the screen unsanitized.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/halcyonlabs/parley/internal/audit"
	"github.com/halcyonlabs/parley/internal/chat"
	"github.com/halcyonlabs/parley/internal/config"
	"github.com/halcyonlabs/parley/internal/elicit"
	"github.com/halcyonlabs/parley/internal/llm"
	"github.com/halcyonlabs/parley/internal/provider"
	"github.com/halcyonlabs/parley/internal/sandbox"
	"github.com/halcyonlabs/parley/internal/sanitize"
	"github.com/halcyonlabs/parley/internal/storage"
	"github.com/halcyonlabs/parley/internal/trust"
	"github.com/halcyonlabs/parley/internal/ui"
)

var version = "dev"

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (default: ~/.parley/config.toml)")
		modelName   = flag.String("model", "", "model name (overrides config)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("parley", version)
		return
	}

	if err := run(*configPath, *modelName); err != nil {
		fmt.Fprintln(os.Stderr, "parley:", err)
		os.Exit(1)
	}
}

func run(configPath, modelOverride string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if modelOverride != "" {
		cfg.Model.Name = modelOverride
	}

	// Audit log: security rejections are recorded, never shown to content.
	auditPath := cfg.Audit.Path
	if auditPath == "" {
		auditPath = ":memory:"
	}
	auditLog, err := audit.Open(auditPath)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer auditLog.Close()

	// Elicitation tracker, shared by the dispatcher and the renderer host.
	tracker := elicit.NewTracker(elicit.Config{
		TTL:           cfg.ElicitationTTL(),
		SweepInterval: cfg.ElicitationSweep(),
	})
	defer tracker.Close()

	// Trust classification: static allow-list from config, optionally
	// overridden by a watched allow-list file.
	classifier := trust.NewClassifier(cfg.Trust.TrustedProviders)
	if cfg.Trust.AllowListPath != "" {
		if err := classifier.ReloadFromFile(cfg.Trust.AllowListPath); err != nil {
			return fmt.Errorf("failed to load allow-list: %w", err)
		}
		watcher, err := trust.NewWatcher(classifier, cfg.Trust.AllowListPath)
		if err != nil {
			return fmt.Errorf("failed to watch allow-list: %w", err)
		}
		if err := watcher.Watch(); err != nil {
			return fmt.Errorf("failed to watch allow-list: %w", err)
		}
		defer watcher.Close()
	}

	// Tool dispatch pipeline.
	registry := provider.NewRegistry()
	dispatcher := provider.NewDispatcher(registry, tracker)
	preparer := sandbox.NewPreparer(classifier, sanitize.NewSanitizer())

	// Model transport.
	client := llm.NewClientWithConfig(&llm.ClientConfig{
		BaseURL:      cfg.Model.BaseURL,
		Timeout:      time.Duration(cfg.Model.TimeoutSeconds) * time.Second,
		DefaultModel: cfg.Model.Name,
	})

	orch := chat.NewOrchestrator(client, dispatcher, preparer,
		chat.WithModelName(cfg.Model.Name),
		chat.WithMaxIterations(cfg.Chat.MaxIterations),
		chat.WithAuditLog(auditLog),
	)

	store, err := storage.NewStore()
	if err != nil {
		// Persistence is optional; the chat still works without it.
		store = nil
	}

	app := ui.NewApp(orch, store, cfg.Model.Name)
	program := tea.NewProgram(app, tea.WithAltScreen())

	// Turn progress flows to the UI as Bubble Tea messages.
	unsubscribe := orch.Subscribe(chat.NewProgramObserver(program))
	defer unsubscribe()

	_, err = program.Run()
	return err
}

// loadConfig loads the named config file, or the default locations when no
// path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadDefault()
}
