package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verdigris-botanica/egress/internal/assessment"
	"github.com/verdigris-botanica/egress/internal/audit"
	"github.com/verdigris-botanica/egress/internal/crypto"
	"github.com/verdigris-botanica/egress/internal/observability"
	"github.com/verdigris-botanica/egress/internal/orchestrator"
	"github.com/verdigris-botanica/egress/internal/tracker"
	"github.com/verdigris-botanica/egress/internal/transport"
	"github.com/verdigris-botanica/egress/internal/types"
)

var flagDryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run assessments and transmit shareable findings",
	Long: `Runs the security and infrastructure assessments, filters the
findings against the classification policy, and drives each shareable
batch through the encrypted transmission pipeline. Sovereign and
confidential findings never leave the origin network.`,
	RunE: runTransmission,
}

func init() {
	runCmd.Flags().BoolVar(&flagDryRun, "dry-run", false,
		"use an in-memory audit store and write nothing to disk")
	rootCmd.AddCommand(runCmd)
}

func runTransmission(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	tp := observability.InitTracing(cmd.Context(), cfg.Tracing.Enabled, nil)
	defer func() { _ = tp.Shutdown(cmd.Context()) }()

	keyManager := crypto.NewFileKeyManager()
	key, err := keyManager.LoadKey(cfg.Security.KeyFile)
	if err != nil {
		return types.WrapError(types.KEY_UNAVAILABLE,
			"no usable transmission key, run 'egress init' first", err)
	}

	var store audit.Store
	if flagDryRun {
		store = audit.NewMemoryStore()
	} else {
		fileStore, err := audit.NewFileStore(cfg.Audit.LogDir, cfg.Audit.RetentionDays)
		if err != nil {
			return err
		}
		store = fileStore
	}
	defer func() { _ = store.Close() }()

	system := assessment.NewSystem()
	security := system.RunSecurityAssessment()
	infra := system.RunInfrastructureAssessment()

	orch := orchestrator.New(
		tracker.NewTracker(),
		store,
		transport.NewSimulated(),
		key,
		cfg.Transmission.Destination,
		orchestrator.WithLogger(logger),
		orchestrator.WithParallelLimit(cfg.Transmission.ParallelLimit),
	)

	results := orch.TransmitAll(cmd.Context(), []orchestrator.Batch{
		{DataType: "security_assessment", Findings: security.Findings},
		{DataType: "infrastructure_assessment", Findings: infra.Findings},
	})

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "✗ record %s failed: %v\n", r.RecordID, r.Err)
			continue
		}
		if r.RecordID.IsZero() {
			fmt.Fprintf(cmd.OutOrStdout(), "- nothing shareable (%d findings withheld)\n", r.RejectedCount)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ record %s transmitted: %d shared, %d withheld, receipt %s\n",
			r.RecordID, r.SharedCount, r.RejectedCount, r.ReceiptID)
	}

	summary, err := store.Summarize()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nAudit summary: %d records, %d bytes transmitted, %d findings shared, %d withheld\n",
		summary.TotalRecords, summary.TransmittedBytes, summary.FindingsShared, summary.FindingsRejected)

	if fileStore, ok := store.(*audit.FileStore); ok {
		if _, err := fileStore.WriteSummary(); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d transmissions failed", failed, len(results))
	}
	return nil
}
