package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <entity>",
	Short: "Export an entity's active records to the configured destination",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := api.Export(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("exporting: %w", err)
		}

		if jsonOutput {
			printJSON(res)
		} else {
			fmt.Printf("exported %d records of %s to %s\n", res.Records, res.Entity, res.Key)
		}
		return nil
	},
}
