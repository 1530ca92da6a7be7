package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kjstillabower/route-audit/internal/audit"
)

// NewRoutesCmd creates the routes command.
func NewRoutesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the requests an audit would issue",
		Long: `Routes reads the route table and prints the synthetic request issued for each
route, without contacting the application. Routes whose verb cannot be resolved are
logged and left out.`,
		Args: cobra.NoArgs,
		RunE: runRoutesCmd,
	}
	addSourceFlags(cmd)
	return cmd
}

func runRoutesCmd(cmd *cobra.Command, _ []string) error {
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
	routes, err := audit.NewEnumerator(source, logger, cfg.TestDomain, cfg.Scheme).Enumerate(cmd.Context())
	if err != nil {
		return err
	}

	exclude := audit.PrefixExclusion(cfg.ExcludePrefixes)
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, route := range routes {
		req := audit.Synthesize(route)
		if exclude.Excluded(req.Path()) {
			fmt.Fprintf(tw, "%s\t%s\t(excluded)\n", strings.ToUpper(req.Method), req.URL)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", strings.ToUpper(req.Method), req.URL)
	}
	return tw.Flush()
}
