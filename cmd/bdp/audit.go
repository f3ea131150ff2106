package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/clistyle"
	"github.com/bdp-project/bdp/internal/journal"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the client's tamper-evident audit journal",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printErr(runAuditList(cmd.Context()))
	},
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the journal's hash chain is intact",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printErr(runAuditVerify(cmd.Context()))
	},
}

var auditExportFormat string
var auditExportOut string

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the journal to a regulatory format (fda, nih, ema, das, json)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printErr(runAuditExport(cmd.Context()))
	},
}

func init() {
	auditExportCmd.Flags().StringVar(&auditExportFormat, "format", "json", "export format: fda, nih, ema, das, json")
	auditExportCmd.Flags().StringVar(&auditExportOut, "out", "", "write export to this file instead of stdout")
	auditCmd.AddCommand(auditListCmd, auditVerifyCmd, auditExportCmd)
	rootCmd.AddCommand(auditCmd)
}

func openJournal() *journal.Journal {
	return journal.Open(cacheStore.DB())
}

func runAuditList(ctx context.Context) error {
	entries, err := openJournal().List(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		outputJSON(entries)
		return nil
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{fmt.Sprintf("%d", e.Seq), e.Timestamp.Format("2006-01-02T15:04:05Z07:00"), e.Action, e.Target}
	}
	fmt.Print(clistyle.Table([]string{"SEQ", "TIMESTAMP", "ACTION", "TARGET"}, rows))
	return nil
}

func runAuditVerify(ctx context.Context) error {
	result, err := openJournal().Verify(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		outputJSON(result)
		if !result.OK {
			return bdperr.New(bdperr.KindInternal, "journal integrity check failed")
		}
		return nil
	}
	if result.OK {
		fmt.Println(clistyle.StatusLine(true, false, fmt.Sprintf("journal chain verified (%d entries)", result.Entries)))
		return nil
	}
	fmt.Println(clistyle.StatusLine(false, false, fmt.Sprintf("journal chain verification failed at seq %d", result.FirstMismatch)))
	return bdperr.New(bdperr.KindInternal, "journal integrity check failed")
}

func runAuditExport(ctx context.Context) error {
	format := journal.Format(auditExportFormat)
	data, err := openJournal().Export(ctx, format)
	if err != nil {
		return err
	}
	if auditExportOut != "" {
		return os.WriteFile(auditExportOut, data, 0o644)
	}
	_, err = os.Stdout.Write(data)
	return err
}
