package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// recordPayload builds a payload from --data when set, otherwise from
// key=value args.
func recordPayload(cmd *cobra.Command, args []string) (map[string]any, error) {
	data, _ := cmd.Flags().GetString("data")
	if data != "" {
		payload := map[string]any{}
		if err := readJSONArg(data, &payload); err != nil {
			return nil, err
		}
		return payload, nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("no record data given (use key=value args or --data)")
	}
	return buildPayload(args)
}

var submitCmd = &cobra.Command{
	Use:   "submit <entity> [key=value ...]",
	Short: "Submit a new record",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := recordPayload(cmd, args[1:])
		if err != nil {
			return err
		}

		doc, err := api.Submit(context.Background(), args[0], payload)
		if err != nil {
			return fmt.Errorf("submitting record: %w", err)
		}

		if jsonOutput {
			printJSON(doc)
		} else {
			fmt.Printf("record %s created\n", doc.ID)
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <entity> <id>",
	Short: "Fetch a record by ID (soft-deleted records included)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := api.GetRecord(context.Background(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("fetching record: %w", err)
		}

		if jsonOutput {
			printJSON(doc)
		} else {
			printDocument(doc)
		}
		return nil
	},
}

var patchCmd = &cobra.Command{
	Use:   "patch <entity> <id> [key=value ...]",
	Short: "Merge fields into an existing record",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := recordPayload(cmd, args[2:])
		if err != nil {
			return err
		}

		doc, err := api.PatchRecord(context.Background(), args[0], args[1], payload)
		if err != nil {
			return fmt.Errorf("patching record: %w", err)
		}

		if jsonOutput {
			printJSON(doc)
		} else {
			fmt.Printf("record %s updated\n", doc.ID)
		}
		return nil
	},
}

var replaceCmd = &cobra.Command{
	Use:   "replace <entity> <id> [key=value ...]",
	Short: "Replace a record's data wholesale",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := recordPayload(cmd, args[2:])
		if err != nil {
			return err
		}

		doc, err := api.ReplaceRecord(context.Background(), args[0], args[1], payload)
		if err != nil {
			return fmt.Errorf("replacing record: %w", err)
		}

		if jsonOutput {
			printJSON(doc)
		} else {
			fmt.Printf("record %s replaced\n", doc.ID)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <entity> <id>",
	Short: "Soft-delete a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.DeleteRecord(context.Background(), args[0], args[1]); err != nil {
			return fmt.Errorf("deleting record: %w", err)
		}
		fmt.Printf("record %s deleted\n", args[1])
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{submitCmd, patchCmd, replaceCmd} {
		cmd.Flags().String("data", "", "record data as JSON (@file or - for stdin)")
	}
}
