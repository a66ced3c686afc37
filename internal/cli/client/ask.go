package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AskRequest represents the ask API request.
type AskRequest struct {
	Query string `json:"query"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about goals and milestones",
		Long:  "Retrieves relevant goals and milestones and generates a grounded answer.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAsk(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runAsk(cmd *cobra.Command, query string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/ask", AskRequest{Query: query})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	var answer Answer
	if err := json.Unmarshal(resp.Data, &answer); err != nil {
		return fmt.Errorf("failed to parse answer: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if answer.Degraded {
		fmt.Println("(degraded: generated without the language model)")
	}
	fmt.Println(answer.Text)
	if len(answer.SourceIDs) > 0 {
		fmt.Printf("\nSources: %s\n", strings.Join(answer.SourceIDs, ", "))
	}

	return nil
}
