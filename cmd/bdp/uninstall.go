package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bdp-project/bdp/internal/clistyle"
)

var uninstallYes bool

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the client cache and .bdp/ project config",
	Long: `Removes $BDP_CACHE_DIR and the project's .bdp/ directory.
bdp.yml and bdl.lock are left in place so the project can be reinitialized
against a fresh cache. Requires --yes; this is destructive and not undoable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printErr(runUninstall())
	},
}

func init() {
	uninstallCmd.Flags().BoolVar(&uninstallYes, "yes", false, "confirm destructive removal")
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall() error {
	if !uninstallYes {
		return newUsageError("uninstall is destructive; re-run with --yes to confirm")
	}

	removed := []string{}
	if cacheStore != nil {
		_ = cacheStore.Close()
	}
	if cfg.CacheDir != "" {
		if err := os.RemoveAll(cfg.CacheDir); err != nil {
			return err
		}
		removed = append(removed, cfg.CacheDir)
	}

	bdpDir := filepath.Join(projectDir, ".bdp")
	if _, err := os.Stat(bdpDir); err == nil {
		if err := os.RemoveAll(bdpDir); err != nil {
			return err
		}
		removed = append(removed, bdpDir)
	}

	if jsonOutput {
		outputJSON(map[string]any{"removed": removed, "kept": []string{"bdp.yml", "bdl.lock"}})
		return nil
	}
	for _, path := range removed {
		fmt.Println(clistyle.StatusLine(true, false, "removed "+path))
	}
	fmt.Println(clistyle.Muted.Render("bdp.yml and bdl.lock were left in place."))
	return nil
}
