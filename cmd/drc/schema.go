package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish <group-id-or-name>",
	Short: "Publish a field group as a new schema version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := api.Publish(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("publishing: %w", err)
		}

		if jsonOutput {
			printJSON(v)
		} else {
			fmt.Printf("published %s version %d\n", v.EntityName, v.Version)
		}
		return nil
	},
}

var deprecateCmd = &cobra.Command{
	Use:   "deprecate <entity>",
	Short: "Deprecate the current published schema of an entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := api.Deprecate(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("deprecating: %w", err)
		}

		if jsonOutput {
			printJSON(v)
		} else {
			fmt.Printf("deprecated %s version %d\n", v.EntityName, v.Version)
		}
		return nil
	},
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback <entity> <version>",
	Short: "Re-publish a historical schema version as a new top version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}

		v, err := api.Rollback(context.Background(), args[0], version)
		if err != nil {
			return fmt.Errorf("rolling back: %w", err)
		}

		if jsonOutput {
			printJSON(v)
		} else {
			fmt.Printf("%s rolled back to the fields of version %d (now version %d)\n",
				v.EntityName, version, v.Version)
		}
		return nil
	},
}

var versionsCmd = &cobra.Command{
	Use:   "versions <entity>",
	Short: "List all schema versions of an entity, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		versions, err := api.ListVersions(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("listing versions: %w", err)
		}

		if jsonOutput {
			printJSON(versions)
		} else {
			printVersionsTable(versions)
		}
		return nil
	},
}

var latestCmd = &cobra.Command{
	Use:   "latest <entity>",
	Short: "Show the latest published schema of an entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := api.LatestPublished(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("fetching schema: %w", err)
		}

		if jsonOutput {
			printJSON(v)
		} else {
			printSchemaVersion(v)
		}
		return nil
	},
}

var indexesCmd = &cobra.Command{
	Use:   "indexes <entity>",
	Short: "Show the derived index plan for an entity's published schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := api.IndexPlan(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("fetching index plan: %w", err)
		}

		if jsonOutput {
			printJSON(plan)
		} else {
			printIndexPlan(plan)
		}
		return nil
	},
}
