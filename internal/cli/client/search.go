package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// SearchRequest represents the search API request.
type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
	Mode  string `json:"mode,omitempty"`
}

// SearchResult represents a search result.
type SearchResult struct {
	RecordID      string   `json:"record_id"`
	Kind          string   `json:"kind"`
	Title         string   `json:"title"`
	Owner         string   `json:"owner,omitempty"`
	Department    string   `json:"department,omitempty"`
	Health        string   `json:"health"`
	SemanticScore float64  `json:"semantic_score"`
	KeywordScore  float64  `json:"keyword_score"`
	HybridScore   float64  `json:"hybrid_score"`
	Reasons       []string `json:"reasons,omitempty"`
}

// Answer represents the generated answer portion of a response.
type Answer struct {
	Text      string   `json:"text"`
	SourceIDs []string `json:"source_ids,omitempty"`
	Model     string   `json:"model,omitempty"`
	Degraded  bool     `json:"degraded"`
}

// SearchResponse represents the search API response.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Answer  *Answer        `json:"answer,omitempty"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var (
		limit   int
		analyze bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search goals and milestones",
		Long:  "Searches goals and milestones using hybrid semantic and keyword ranking.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSearch(cmd, args[0], limit, analyze, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().BoolVar(&analyze, "analyze", false, "Include an AI analysis of the results")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, limit int, analyze, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	req := SearchRequest{
		Query: query,
		K:     limit,
		Mode:  "raw",
	}
	if analyze {
		req.Mode = "ai_analysis"
	}

	resp, err := api.Post("/search", req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(resp.Data, &searchResp); err != nil {
		return fmt.Errorf("failed to parse search results: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(searchResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(searchResp.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(searchResp.Results))
	for i, result := range searchResp.Results {
		fmt.Printf("%d. [%s] %s (%.3f)\n", i+1, result.Kind, result.Title, result.HybridScore)
		if result.Owner != "" {
			fmt.Printf("   Owner: %s\n", result.Owner)
		}
		if result.Department != "" {
			fmt.Printf("   Department: %s\n", result.Department)
		}
		fmt.Printf("   Health: %s\n", result.Health)
		if len(result.Reasons) > 0 {
			fmt.Printf("   Matched: %s\n", strings.Join(result.Reasons, ", "))
		}
		fmt.Printf("   ID: %s\n", result.RecordID)
		if i < len(searchResp.Results)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	if searchResp.Answer != nil {
		fmt.Printf("\n%s\n", strings.Repeat("=", 40))
		if searchResp.Answer.Degraded {
			fmt.Println("(degraded: generated without the language model)")
		}
		fmt.Println(searchResp.Answer.Text)
	}

	return nil
}
