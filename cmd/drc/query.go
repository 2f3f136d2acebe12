package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groblegark/dynrec/internal/client"
)

var queryCmd = &cobra.Command{
	Use:   "query <entity>",
	Short: "Run a filtered, paged query against an entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")
		sortBy, _ := cmd.Flags().GetString("sort")
		sortDir, _ := cmd.Flags().GetString("dir")
		filters, _ := cmd.Flags().GetStringArray("filter")

		req := client.QueryRequest{
			Page:          page,
			Size:          size,
			SortBy:        sortBy,
			SortDirection: sortDir,
		}
		for _, f := range filters {
			var raw json.RawMessage
			if err := readJSONArg(f, &raw); err != nil {
				return fmt.Errorf("filter %q: %w", f, err)
			}
			req.Filters = append(req.Filters, raw)
		}

		res, err := api.Query(context.Background(), args[0], req)
		if err != nil {
			return fmt.Errorf("querying records: %w", err)
		}

		if jsonOutput {
			printJSON(res)
		} else {
			printQueryResult(res)
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().Int("page", 0, "zero-based page number")
	queryCmd.Flags().Int("size", 10, "page size")
	queryCmd.Flags().String("sort", "", "field path to sort by")
	queryCmd.Flags().String("dir", "", "sort direction (ASC or DESC)")
	queryCmd.Flags().StringArray("filter", nil, "filter rule as JSON (repeatable, @file or - for stdin)")
}
