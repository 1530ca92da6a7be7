package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kjstillabower/route-audit/internal/audit"
	"github.com/kjstillabower/route-audit/internal/config"
	"github.com/kjstillabower/route-audit/internal/observability"
	"github.com/kjstillabower/route-audit/internal/report"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Probe every route and report the ones that lead nowhere",
		Long: `Audit requests every route in the route table against a running instance of the
application and reports routes whose controller or action does not exist.

The target should run in development mode so that error pages name the failure.

Examples:
  # Audit a local Rails app
  bin/rails routes > routes.txt
  routeaudit audit --routes routes.txt --target http://localhost:3000

  # Write a markdown summary for CI
  routeaudit audit -r routes.txt -t http://localhost:3000 -f markdown -o audit.md

Exit status is 1 when at least one orphaned route is found.`,
		Args: cobra.NoArgs,
		RunE: runAuditCmd,
	}

	addSourceFlags(cmd)
	cmd.Flags().StringP("target", "t", "", "Base URL of the running application")
	cmd.Flags().StringP("format", "f", "", "Report format: text, markdown or json")
	cmd.Flags().StringP("output", "o", "", "Write report to file instead of stdout")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this textfile after the run")

	return cmd
}

func runAuditCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := setupLogger(getVerboseFlag(cmd))
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	source, err := loadSource(cfg)
	if err != nil {
		return err
	}
	h, err := newRemoteHarness(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditor := audit.New(source, h, logger, audit.Config{
		Exclude:      audit.PrefixExclusion(cfg.ExcludePrefixes),
		TestDomain:   cfg.TestDomain,
		Scheme:       cfg.Scheme,
		ProbeTimeout: cfg.ProbeTimeout,
	})
	rep, err := auditor.Run(ctx)
	return finishAudit(cmd.OutOrStdout(), cfg, logger, rep, err)
}

// finishAudit writes rep, including a partial one from an interrupted run, and
// flushes metrics. A run error takes precedence over the orphaned-routes error.
func finishAudit(stdout io.Writer, cfg *config.Config, logger *zap.Logger, rep *audit.Report, runErr error) error {
	if rep == nil {
		return runErr
	}
	if err := writeReport(stdout, cfg.ReportFormat, cfg.ReportOutput, rep); err != nil {
		return errors.Join(runErr, err)
	}

	if err := observability.FlushTelemetry(context.Background(), nil, cfg.MetricsTextfile); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	if runErr != nil {
		logger.Warn("audit interrupted, report is partial", zap.Int("probed", len(rep.Results)), zap.Error(runErr))
		return runErr
	}
	return rep.Err()
}

// writeReport renders rep to stdout, or to path when set, creating parent directories.
func writeReport(stdout io.Writer, format, path string, rep *audit.Report) error {
	out := stdout
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer f.Close()
		out = f
	}

	w, err := report.New(format, out)
	if err != nil {
		return err
	}
	if err := w.Write(rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
