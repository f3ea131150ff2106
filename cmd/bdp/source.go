package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bdp-project/bdp/internal/clistyle"
	"github.com/bdp-project/bdp/internal/manifest"
	"github.com/bdp-project/bdp/internal/resolve"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage bdp.yml's sources list",
}

var sourceAddCmd = &cobra.Command{
	Use:   "add <spec>",
	Short: "Add a data source to bdp.yml, e.g. uniprot:P01308-fasta@1.0",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printErr(runSourceAdd(args[0]))
	},
}

var sourceRemoveCmd = &cobra.Command{
	Use:   "remove <spec>",
	Short: "Remove a data source from bdp.yml",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printErr(runSourceRemove(args[0]))
	},
}

var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bdp.yml's declared sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printErr(runSourceList())
	},
}

func init() {
	sourceCmd.AddCommand(sourceAddCmd, sourceRemoveCmd, sourceListCmd)
	rootCmd.AddCommand(sourceCmd)
}

func loadManifestDoc() (*manifest.Document, error) {
	data, err := os.ReadFile(manifestPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newUsageError("no bdp.yml found in %s; run `bdp init` first", projectDir)
		}
		return nil, err
	}
	return manifest.ParseManifest(data)
}

func writeManifestDoc(doc *manifest.Document) error {
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(manifestPath(), data, 0o644)
}

func runSourceAdd(spec string) error {
	doc, err := loadManifestDoc()
	if err != nil {
		return err
	}
	for _, e := range doc.Sources {
		if e.Spec == spec {
			return newUsageError("%s is already in bdp.yml", spec)
		}
	}
	doc.Sources = append(doc.Sources, resolve.ManifestEntry{Spec: spec})
	if err := writeManifestDoc(doc); err != nil {
		return err
	}
	if jsonOutput {
		outputJSON(map[string]any{"added": spec})
		return nil
	}
	fmt.Println(clistyle.StatusLine(true, false, "added "+spec))
	return nil
}

func runSourceRemove(spec string) error {
	doc, err := loadManifestDoc()
	if err != nil {
		return err
	}
	kept := doc.Sources[:0]
	found := false
	for _, e := range doc.Sources {
		if e.Spec == spec {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return newUsageError("%s is not in bdp.yml", spec)
	}
	doc.Sources = kept
	if err := writeManifestDoc(doc); err != nil {
		return err
	}
	if jsonOutput {
		outputJSON(map[string]any{"removed": spec})
		return nil
	}
	fmt.Println(clistyle.StatusLine(true, false, "removed "+spec))
	return nil
}

func runSourceList() error {
	doc, err := loadManifestDoc()
	if err != nil {
		return err
	}
	if jsonOutput {
		specs := make([]string, len(doc.Sources))
		for i, e := range doc.Sources {
			specs[i] = e.Spec
		}
		outputJSON(map[string]any{"sources": specs})
		return nil
	}
	rows := make([][]string, len(doc.Sources))
	for i, e := range doc.Sources {
		rows[i] = []string{e.Spec}
	}
	fmt.Print(clistyle.Table([]string{"SOURCE"}, rows))
	return nil
}
