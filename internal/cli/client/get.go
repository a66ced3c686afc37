package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Record represents a single goal or milestone as returned by the API.
type Record struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
	Department  string `json:"department,omitempty"`
	Health      string `json:"health"`
	EndDate     string `json:"end_date,omitempty"`
	LastUpdate  string `json:"last_update,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
}

// GetCmd creates the get command.
func GetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <record-id>",
		Short: "Show a goal or milestone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runGet(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runGet(cmd *cobra.Command, id string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/records/" + id)
	if err != nil {
		return fmt.Errorf("get failed: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(resp.Data, &rec); err != nil {
		return fmt.Errorf("failed to parse record: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(rec, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("[%s] %s\n", rec.Kind, rec.Title)
	if rec.Owner != "" {
		fmt.Printf("Owner: %s\n", rec.Owner)
	}
	if rec.Department != "" {
		fmt.Printf("Department: %s\n", rec.Department)
	}
	fmt.Printf("Health: %s\n", rec.Health)
	if rec.EndDate != "" {
		fmt.Printf("Due: %s\n", rec.EndDate)
	}
	if rec.Description != "" {
		fmt.Printf("\n%s\n", rec.Description)
	}
	if rec.LastUpdate != "" {
		fmt.Printf("\nLast update: %s\n", rec.LastUpdate)
	}
	if rec.ParentID != "" {
		fmt.Printf("\nParent goal: %s\n", rec.ParentID)
	}

	return nil
}
