package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/goalsight/internal/cli"
	"github.com/cloo-solutions/goalsight/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "goalsightd",
		Short: "GoalSight daemon",
		Long:  "GoalSight daemon for serving hybrid search and Q&A over goals and milestones",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
