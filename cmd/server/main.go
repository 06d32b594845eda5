/*
Package main is the entry point for the concierge CLI.

concierge serves the website chat gateway: keyword routing over the content
corpus, rate-limited LLM chat and research, the contact form and the
AI-facing knowledge base.

Usage:

	concierge [command]

Available Commands:

	serve       Run the HTTP server
	match       Rank content topics for a query
	classify    Classify a visitor from request metadata
	report      Build and send the chat activity report now
	migrate     Apply database migrations
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "concierge",
		Short:         "Query routing and rate-limited chat gateway",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newMatchCmd(),
		newClassifyCmd(),
		newReportCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
