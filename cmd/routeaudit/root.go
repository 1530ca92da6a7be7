package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kjstillabower/route-audit/internal/audit"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routeaudit",
		Short: "Find routes that lead to nowhere",
		Long: `routeaudit finds orphaned routes: entries in a route table whose controller or
action no longer exists. Every route is requested once with a placeholder value
substituted for its parameters; failures raised after routing succeeded (missing
records, missing parameters) prove a handler exists and are ignored.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewRoutesCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command. Orphaned routes have already been reported by the
// audit command, so they only set the exit status.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, audit.ErrOrphanedRoutes) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}
