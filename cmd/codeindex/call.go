package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codeindex-go/codeindex/internal/engine"
	"github.com/codeindex-go/codeindex/internal/search"
	"github.com/codeindex-go/codeindex/internal/validate"
)

type findFilesParams struct {
	Pattern    string `json:"pattern"`
	MaxResults *int   `json:"max_results,omitempty"`
}

type getFileSummaryParams struct {
	RelativePath string `json:"relative_path"`
}

type searchParams struct {
	Pattern       string   `json:"pattern"`
	IsRegex       bool     `json:"is_regex"`
	RelativePaths []string `json:"relative_paths,omitempty"`
	StartIndex    int      `json:"start_index"`
	MaxResults    *int     `json:"max_results,omitempty"`
}

func callCmd() *cobra.Command {
	var path string
	var paramsJSON string

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Invoke one query tool against a previously built index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := args[0]

			eng := engine.New(engine.Config{Metrics: startMetrics()})
			if err := eng.SetProjectPath(path); err != nil {
				return err
			}
			defer eng.Close()
			if err := eng.LoadIndex(context.Background()); err != nil {
				return fmt.Errorf("load index (run 'codeindex index' first): %w", err)
			}

			result, err := dispatch(context.Background(), eng, tool, paramsJSON)
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(result)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "absolute project root (required)")
	cmd.Flags().StringVar(&paramsJSON, "params", "{}", "JSON-encoded tool parameters")
	cmd.MarkFlagRequired("path")
	return cmd
}

func dispatch(ctx context.Context, eng *engine.Engine, tool, paramsJSON string) (any, error) {
	switch tool {
	case "find_files":
		var p findFilesParams
		if err := json.Unmarshal([]byte(paramsJSON), &p); err != nil {
			return nil, &validate.Error{Message: "invalid params: " + err.Error()}
		}
		return eng.FindFiles(p.Pattern, p.MaxResults)

	case "get_file_summary":
		var p getFileSummaryParams
		if err := json.Unmarshal([]byte(paramsJSON), &p); err != nil {
			return nil, &validate.Error{Message: "invalid params: " + err.Error()}
		}
		return eng.GetFileSummary(ctx, p.RelativePath)

	case "get_index_stats":
		return eng.GetIndexStats(ctx)

	case "get_file_list":
		return eng.GetFileList()

	case "search":
		var p searchParams
		if err := json.Unmarshal([]byte(paramsJSON), &p); err != nil {
			return nil, &validate.Error{Message: "invalid params: " + err.Error()}
		}
		rows, info, err := eng.Search(search.Query{Pattern: p.Pattern, IsRegex: p.IsRegex}, p.RelativePaths, p.StartIndex, p.MaxResults)
		if err != nil {
			return nil, err
		}
		return struct {
			Rows       []search.Row       `json:"rows"`
			Pagination any                `json:"pagination"`
		}{Rows: rows, Pagination: info}, nil

	default:
		return nil, &validate.Error{Message: fmt.Sprintf("unknown tool: %s", tool)}
	}
}
