// Command dataserver serves the profile-data tool over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"mcporch/servers"
)

func main() {
	var profile string

	cmd := &cobra.Command{
		Use:           "dataserver",
		Short:         "Serve the profile-data tool over stdio",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.ServeStdio(servers.NewDataServer(profile))
		},
	}
	cmd.Flags().StringVar(&profile, "profile", os.Getenv("MCPORCH_PROFILE"),
		"markdown file served by profile-data (default: built-in sample)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dataserver: %v\n", err)
		os.Exit(1)
	}
}
