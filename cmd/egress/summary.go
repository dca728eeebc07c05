package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verdigris-botanica/egress/internal/audit"
)

var flagExportPath string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Recompute and print the audit summary",
	Long: `Replays the append-only transmission log and prints the aggregate
summary. The summary is always recomputed from persisted records, so it
can be regenerated at any time.`,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&flagExportPath, "export", "",
		"also write a full compliance export (summary plus all records) to this path")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := audit.NewFileStore(cfg.Audit.LogDir, cfg.Audit.RetentionDays)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	summary, err := store.WriteSummary()
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if flagExportPath != "" {
		if err := store.ExportAudit(flagExportPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "audit export written to %s\n", flagExportPath)
	}

	return nil
}
