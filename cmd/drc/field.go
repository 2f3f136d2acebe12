package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groblegark/dynrec/internal/model"
)

var fieldCmd = &cobra.Command{
	Use:   "field",
	Short: "Manage field definitions",
}

var fieldSetCmd = &cobra.Command{
	Use:   "set <definition>",
	Short: "Create or update a field definition from JSON (@file or - for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var def model.FieldDefinition
		if err := readJSONArg(args[0], &def); err != nil {
			return err
		}

		saved, err := api.SaveField(context.Background(), &def)
		if err != nil {
			return fmt.Errorf("saving field: %w", err)
		}

		if jsonOutput {
			printJSON(saved)
		} else {
			fmt.Printf("field %q saved (version %d)\n", saved.FieldName, saved.Version)
		}
		return nil
	},
}

var fieldGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show the latest version of a field definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := api.GetField(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("fetching field: %w", err)
		}

		if jsonOutput {
			printJSON(def)
		} else {
			printField(def)
		}
		return nil
	},
}

var fieldDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a field definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.DeleteField(context.Background(), args[0]); err != nil {
			return fmt.Errorf("deleting field: %w", err)
		}
		fmt.Printf("field %q deleted\n", args[0])
		return nil
	},
}

func init() {
	fieldCmd.AddCommand(fieldSetCmd)
	fieldCmd.AddCommand(fieldGetCmd)
	fieldCmd.AddCommand(fieldDeleteCmd)
}
