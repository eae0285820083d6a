package main

import (
	"fmt"
	"os"

	"github.com/coursepilot/coursepilot/internal/cli"
	"github.com/coursepilot/coursepilot/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "coursepilotd",
		Short: "Coursepilot daemon and CLI",
		Long:  "Coursepilot daemon for running the course assistant API server, ingesting documents, and drafting weekly announcements",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())
	rootCmd.AddCommand(admin.ConductCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
