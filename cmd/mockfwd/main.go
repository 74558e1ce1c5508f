// mockfwd - rule-driven HTTP mock server with proxy fallback.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mockfwd",
		Short: "Mock server with proxy fallback",
		Long: "mockfwd answers requests from a declarative rule set and proxies\n" +
			"everything else to a configured default backend.",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running the bare binary starts the server, like the original tool.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	addServeFlags(root)
	root.AddCommand(newServeCmd(), newValidateCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mockfwd %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		},
	}
}
