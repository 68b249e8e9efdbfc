// Command codeindex builds and queries a project's file and symbol index.
//
// Usage:
//
//	codeindex index --path /abs/project [--exclude vendor,dist] [--parallel]
//	codeindex call find_files --path /abs/project --params '{"pattern":"*.go"}'
//	codeindex call get_file_summary --path /abs/project --params '{"relative_path":"main.go"}'
//	codeindex call get_index_stats --path /abs/project --params '{}'
//	codeindex call get_file_list --path /abs/project --params '{}'
//	codeindex call search --path /abs/project --params '{"pattern":"TODO"}'
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
