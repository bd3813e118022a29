// Package main provides the capgen CLI entrypoint.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jmallet/capgen/internal/api"
	"github.com/jmallet/capgen/internal/config"
	"github.com/jmallet/capgen/internal/session"
	"github.com/jmallet/capgen/internal/storage"
	"github.com/jmallet/capgen/internal/tui"
	"github.com/jmallet/capgen/internal/workflow"
)

var (
	version = "0.1.0"

	client    *api.Client
	sessStore *session.Store
	current   session.Session
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "capgen",
		Short: "Image caption generator client",
		Long: `capgen: terminal client for the image captioning service.

Usage modes:
  capgen                    Start the interactive screen (current directory)
  capgen caption <image>    Caption one or more images from the command line
  capgen <command>          Run a specific command (see below)

Guests get one free generation; login for unlimited use and history.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := config.Env()
			client = api.New(cfg.APIURL, cfg.HTTPTimeout)
			sessStore = session.NewStore(config.GetPaths().SessionFile)

			var err error
			current, err = sessStore.Load()
			if err != nil {
				// A broken session file means guest mode, not a crash.
				fmt.Fprintf(os.Stderr, "Warning: ignoring unreadable session: %v\n", err)
				current = session.Session{}
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			runHome()
		},
	}

	rootCmd.AddCommand(captionCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(signupCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the capgen version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("capgen %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runHome starts the interactive screen.
func runHome() {
	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}

	history := workflow.NewRecentHistory(client, openCache())
	orch := workflow.NewOrchestrator(client, &workflow.GuestQuotaGuard{}, nil)

	model := tui.New(current, orch, history, workDir)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		exitOnError(err)
	}
}

// openCache opens the local history cache. The cache is an optimization;
// when it cannot be opened the client just runs without one.
func openCache() workflow.HistoryCache {
	cache, err := storage.New(config.GetPaths().Data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: history cache disabled: %v\n", err)
		return nil
	}
	return cache
}
