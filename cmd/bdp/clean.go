package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bdp-project/bdp/internal/cache"
	"github.com/bdp-project/bdp/internal/clistyle"
	"github.com/bdp-project/bdp/internal/discovery"
	"github.com/bdp-project/bdp/internal/manifest"
)

var (
	cleanAll    bool
	cleanUnused bool
	cleanAge    string
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Prune the client cache: --all, --unused, or --age DAYS",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printErr(runClean(cmd.Context()))
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "remove every cached file")
	cleanCmd.Flags().BoolVar(&cleanUnused, "unused", false, "remove files not referenced by the current bdl.lock")
	cleanCmd.Flags().StringVar(&cleanAge, "age", "", "remove files older than this (e.g. \"30\" days, or \"3 weeks ago\")")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(ctx context.Context) error {
	selected := 0
	for _, b := range []bool{cleanAll, cleanUnused, cleanAge != ""} {
		if b {
			selected++
		}
	}
	if selected != 1 {
		return newUsageError("exactly one of --all, --unused, or --age is required")
	}

	var report cache.PruneReport
	var err error
	switch {
	case cleanAll:
		report, err = cacheStore.PruneAll(ctx)
	case cleanUnused:
		report, err = pruneUnused(ctx)
	default:
		cutoff, parseErr := parseAge(cleanAge)
		if parseErr != nil {
			return newUsageError("parse --age: %v", parseErr)
		}
		report, err = cacheStore.PruneOlderThan(ctx, cutoff)
	}
	if err != nil {
		return err
	}

	var bytesFreed uint64
	if report.BytesFreed > 0 {
		bytesFreed = uint64(report.BytesFreed)
	}
	if jsonOutput {
		outputJSON(map[string]any{"removed_count": len(report.Removed), "bytes_freed": report.BytesFreed})
		return nil
	}
	fmt.Println(clistyle.StatusLine(true, false,
		fmt.Sprintf("removed %d file(s), freed %s", len(report.Removed), humanize.Bytes(bytesFreed))))
	return nil
}

func pruneUnused(ctx context.Context) (cache.PruneReport, error) {
	lock, err := manifest.ReadLockfile(lockfilePath())
	if err != nil {
		// No lockfile means nothing is "in use" by the current project.
		return cacheStore.PruneAll(ctx)
	}
	keep := make(map[string]struct{}, len(lock.Sources))
	for _, e := range lock.Sources {
		keep[cache.LockfileKey(e.Spec, e.InternalVersion, e.FileFormat)] = struct{}{}
	}
	return cacheStore.PruneUnused(ctx, keep)
}

func parseAge(raw string) (time.Time, error) {
	if days, err := strconv.Atoi(raw); err == nil {
		return time.Now().AddDate(0, 0, -days), nil
	}
	formatted, err := discovery.ParseNaturalDate(raw, time.Now(), time.RFC3339)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, formatted)
}
