package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"rxmcp/internal/server"
)

// Build-time variables (set via ldflags)
var (
	version = "dev"
	commit  = "none"
)

func init() {
	server.Version = version
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rxmcp %s (%s) %s %s/%s\n", version, commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
