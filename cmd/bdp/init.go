package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/bdp-project/bdp/internal/clistyle"
	"github.com/bdp-project/bdp/internal/manifest"
	"github.com/bdp-project/bdp/internal/resolve"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new bdp.yml manifest in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printErr(runInit())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit() error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	manifestFile := filepath.Join(wd, "bdp.yml")
	if _, err := os.Stat(manifestFile); err == nil {
		return newUsageError("bdp.yml already exists in %s", wd)
	}

	var name, version, firstSource string
	if !jsonOutput {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Project name").
					Placeholder(filepath.Base(wd)).
					Value(&name),
				huh.NewInput().
					Title("Project version").
					Placeholder("0.1.0").
					Value(&version),
				huh.NewInput().
					Title("First data source (optional)").
					Description("e.g. uniprot:P01308-fasta@1.0").
					Value(&firstSource),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("init form: %w", err)
		}
	}
	if name == "" {
		name = filepath.Base(wd)
	}
	if version == "" {
		version = "0.1.0"
	}

	doc := &manifest.Document{Name: name, Version: version}
	if firstSource != "" {
		doc.Sources = []resolve.ManifestEntry{{Spec: firstSource}}
	}

	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(manifestFile, data, 0o644); err != nil {
		return err
	}

	if jsonOutput {
		outputJSON(map[string]any{"manifest": manifestFile, "name": name, "version": version})
		return nil
	}
	fmt.Println(clistyle.StatusLine(true, false, "created "+manifestFile))
	return nil
}
