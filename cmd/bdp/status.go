package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bdp-project/bdp/internal/clistyle"
	"github.com/bdp-project/bdp/internal/manifest"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Compare bdp.yml's sources against bdl.lock and the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printErr(runStatus(cmd.Context()))
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(ctx context.Context) error {
	doc, err := loadManifestDoc()
	if err != nil {
		return err
	}
	lock, err := manifest.ReadLockfile(lockfilePath())
	if err != nil {
		return newUsageError("no bdl.lock found; run `bdp pull` first")
	}

	type row struct {
		Spec    string
		Cached  bool
		SizeStr string
	}
	rows := make([]row, 0, len(lock.Sources))
	for _, entry := range lock.Sources {
		cached, ok, err := cacheStore.Lookup(ctx, entry.Spec, entry.InternalVersion, entry.FileFormat)
		if err != nil {
			return err
		}
		rows = append(rows, row{Spec: entry.Spec, Cached: ok, SizeStr: humanize.Bytes(uint64(cached.SizeBytes))})
	}

	if jsonOutput {
		outputJSON(map[string]any{"name": doc.Name, "version": doc.Version, "sources": rows})
		return nil
	}

	fmt.Printf("%s %s\n", doc.Name, doc.Version)
	for _, r := range rows {
		label := r.Spec
		if r.Cached {
			label += " (" + r.SizeStr + ")"
		}
		fmt.Println(clistyle.StatusLine(r.Cached, !r.Cached, label))
	}
	return nil
}
