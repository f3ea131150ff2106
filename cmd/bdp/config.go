package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/bdp-project/bdp/internal/clistyle"
	"github.com/bdp-project/bdp/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Get, set, or list .bdp/config.yaml settings",
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one config key's value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printErr(runConfigGet(args[0]))
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write one config key into .bdp/config.yaml",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printErr(runConfigSet(args[0], args[1]))
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every key currently set in .bdp/config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printErr(runConfigList())
	},
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd, configListCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigGet(key string) error {
	values, err := config.ReadRaw(projectDir)
	if err != nil {
		return err
	}
	value, ok := values[key]
	if !ok {
		return newUsageError("%s is not set in .bdp/config.yaml", key)
	}
	if jsonOutput {
		outputJSON(map[string]string{key: value})
		return nil
	}
	fmt.Println(value)
	return nil
}

func runConfigSet(key, value string) error {
	if err := config.Set(projectDir, key, value); err != nil {
		return err
	}
	if jsonOutput {
		outputJSON(map[string]string{key: value})
		return nil
	}
	fmt.Println(clistyle.StatusLine(true, false, fmt.Sprintf("%s = %s", key, value)))
	return nil
}

func runConfigList() error {
	values, err := config.ReadRaw(projectDir)
	if err != nil {
		return err
	}
	if jsonOutput {
		outputJSON(values)
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, len(keys))
	for i, k := range keys {
		rows[i] = []string{k, values[k]}
	}
	fmt.Print(clistyle.Table([]string{"KEY", "VALUE"}, rows))
	return nil
}
