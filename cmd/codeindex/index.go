package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeindex-go/codeindex/internal/engine"
)

func indexCmd() *cobra.Command {
	var path string
	var excludeCSV string
	var parallel bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the shallow and deep index for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			var excludes []string
			if strings.TrimSpace(excludeCSV) != "" {
				excludes = strings.Split(excludeCSV, ",")
			}

			eng := engine.New(engine.Config{
				Parallel:           parallel,
				AdditionalExcludes: excludes,
				Metrics:            startMetrics(),
			})
			if err := eng.SetProjectPath(path); err != nil {
				return err
			}
			defer eng.Close()

			stats, err := eng.BuildIndex(context.Background())
			if err != nil {
				return fmt.Errorf("build index: %w", err)
			}
			return json.NewEncoder(os.Stdout).Encode(stats)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "absolute project root (required)")
	cmd.Flags().StringVar(&excludeCSV, "exclude", "", "comma-separated directory basenames to exclude")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "parse files concurrently")
	cmd.MarkFlagRequired("path")
	return cmd
}
