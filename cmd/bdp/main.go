// Command bdp is the client CLI (spec.md §6's "CLI surface"): init,
// source add/remove/list, pull, status, audit list/verify/export, clean,
// config, uninstall. Structured the way the teacher's cmd/bd/main.go
// wires cobra — one command per verb registered via init(), a handful of
// package-level globals set up in PersistentPreRunE, --json for
// machine-readable output — minus the daemon/auto-flush machinery, which
// has no analogue in a stateless registry client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bdp-project/bdp/internal/cache"
	"github.com/bdp-project/bdp/internal/client"
	"github.com/bdp-project/bdp/internal/config"
)

var (
	jsonOutput bool
	serverURL  string
	actorFlag  string
	cacheDir   string

	cfg        *config.Config
	registry   *client.Client
	cacheStore *cache.Store
	projectDir string
)

var rootCmd = &cobra.Command{
	Use:           "bdp",
	Short:         "bdp - dependency manager for versioned biological datasets",
	Long:          `bdp resolves, fetches, and audits versioned biological reference data declared in bdp.yml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "help", "completion":
			return nil
		}

		wd, err := os.Getwd()
		if err != nil {
			return printErr(err)
		}
		projectDir = config.FindProjectRoot(wd)
		if projectDir == "" {
			projectDir = wd
		}

		loaded, err := config.Load(projectDir)
		if err != nil {
			return printErr(fmt.Errorf("load config: %w", err))
		}
		cfg = loaded

		if cmd.Flags().Changed("server") {
			cfg.ServerURL = serverURL
		}
		if cmd.Flags().Changed("actor") {
			cfg.Actor = actorFlag
		}
		if cmd.Flags().Changed("cache-dir") {
			cfg.CacheDir = cacheDir
		}

		registry = client.New(cfg.ServerURL, client.WithActor(cfg.Actor), client.WithTimeout(cfg.RequestTimeout))

		if cmd.Name() != "init" {
			store, err := cache.Open(cfg.CacheDir)
			if err != nil {
				return printErr(fmt.Errorf("open cache: %w", err))
			}
			cacheStore = store
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cacheStore != nil {
			_ = cacheStore.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "registry server URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", "", "actor name attached to audit records (overrides config)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "client cache root (overrides config)")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(exitCodeFor(err))
	}
}
