package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groblegark/dynrec/internal/model"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage field groups",
}

var groupSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Create or update a field group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entity, _ := cmd.Flags().GetString("entity")
		fields, _ := cmd.Flags().GetStringSlice("fields")
		id, _ := cmd.Flags().GetString("id")

		group := &model.FieldGroup{
			ID:         id,
			Name:       args[0],
			Entity:     entity,
			FieldNames: fields,
		}

		saved, err := api.SaveGroup(context.Background(), group)
		if err != nil {
			return fmt.Errorf("saving group: %w", err)
		}

		if jsonOutput {
			printJSON(saved)
		} else {
			fmt.Printf("group %q saved (id %s, version %d)\n", saved.Name, saved.ID, saved.Version)
		}
		return nil
	},
}

var groupGetCmd = &cobra.Command{
	Use:   "get <id-or-name>",
	Short: "Show a field group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		group, err := api.GetGroup(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("fetching group: %w", err)
		}

		if jsonOutput {
			printJSON(group)
		} else {
			printGroup(group)
		}
		return nil
	},
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a field group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.DeleteGroup(context.Background(), args[0]); err != nil {
			return fmt.Errorf("deleting group: %w", err)
		}
		fmt.Printf("group %q deleted\n", args[0])
		return nil
	},
}

func init() {
	groupSetCmd.Flags().String("entity", "", "entity the group publishes to")
	groupSetCmd.Flags().StringSlice("fields", nil, "ordered field definition names")
	groupSetCmd.Flags().String("id", "", "existing group ID to update")
	groupSetCmd.MarkFlagRequired("entity")
	groupSetCmd.MarkFlagRequired("fields")

	groupCmd.AddCommand(groupSetCmd)
	groupCmd.AddCommand(groupGetCmd)
	groupCmd.AddCommand(groupDeleteCmd)
}
