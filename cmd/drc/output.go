package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/groblegark/dynrec/internal/client"
	"github.com/groblegark/dynrec/internal/model"
	"github.com/groblegark/dynrec/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printSchemaVersion(v *model.SchemaVersion) {
	fmt.Printf("Entity:     %s\n", v.EntityName)
	fmt.Printf("Version:    %d\n", v.Version)
	fmt.Printf("Status:     %s\n", ui.RenderStatus(v.Status))
	if v.GroupName != "" {
		fmt.Printf("Group:      %s\n", v.GroupName)
	}
	fmt.Printf("Fields:     %d\n", len(v.Fields))
	if v.PublishedAt != nil {
		fmt.Printf("Published:  %s\n", v.PublishedAt.Format("2006-01-02 15:04:05"))
	}
	if v.DeprecatedAt != nil {
		fmt.Printf("Deprecated: %s\n", v.DeprecatedAt.Format("2006-01-02 15:04:05"))
	}
	if v.ModifiedBy != "" {
		fmt.Printf("Modified:   %s\n", ui.RenderMuted(v.ModifiedBy))
	}
}

func printVersionsTable(versions []*model.SchemaVersion) {
	t := ui.NewTable(os.Stdout)
	t.Row("VERSION", "STATUS", "GROUP", "FIELDS", "PUBLISHED")
	for _, v := range versions {
		published := ""
		if v.PublishedAt != nil {
			published = v.PublishedAt.Format("2006-01-02 15:04:05")
		}
		t.Row(v.Version, ui.RenderStatus(v.Status), v.GroupName, len(v.Fields), published)
	}
	t.Flush()
	fmt.Printf("\n%d versions\n", len(versions))
}

func printField(def *model.FieldDefinition) {
	fmt.Printf("Name:     %s\n", def.FieldName)
	fmt.Printf("Type:     %s\n", def.Type)
	fmt.Printf("Version:  %d\n", def.Version)
	var flags []string
	if def.Required {
		flags = append(flags, "required")
	}
	if def.Unique {
		flags = append(flags, "unique")
	}
	if def.Indexed {
		flags = append(flags, "indexed")
	}
	if len(flags) > 0 {
		fmt.Printf("Flags:    %s\n", strings.Join(flags, ", "))
	}
	if len(def.SubFields) > 0 {
		fmt.Printf("Subfields: %d\n", len(def.SubFields))
	}
}

func printGroup(g *model.FieldGroup) {
	fmt.Printf("ID:       %s\n", g.ID)
	fmt.Printf("Name:     %s\n", g.Name)
	fmt.Printf("Entity:   %s\n", g.Entity)
	fmt.Printf("Version:  %d\n", g.Version)
	fmt.Printf("Fields:   %s\n", strings.Join(g.FieldNames, ", "))
}

func printDocument(doc *model.Document) {
	fmt.Printf("ID:       %s\n", ui.RenderAccent(doc.ID))
	fmt.Printf("Entity:   %s\n", doc.Entity)
	if doc.Deleted {
		fmt.Printf("Deleted:  %s\n", ui.RenderMuted("yes"))
	}
	fmt.Printf("Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))
	data, err := json.MarshalIndent(doc.Data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Printf("Data:\n%s\n", string(data))
}

func printQueryResult(res *client.QueryResult) {
	t := ui.NewTable(os.Stdout)
	t.Row("ID", "UPDATED", "DATA")
	for _, doc := range res.Content {
		t.Row(doc.ID, doc.UpdatedAt.Format("2006-01-02 15:04:05"), summarizeData(doc.Data))
	}
	t.Flush()
	fmt.Printf("\npage %d, %d of %d records\n", res.Page, len(res.Content), res.TotalElements)
}

// summarizeData renders a flat one-line preview of a record's data map.
func summarizeData(data map[string]any) string {
	raw, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	s := string(raw)
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}

func printIndexPlan(plan *client.IndexPlan) {
	fmt.Printf("Entity:  %s (schema v%d)\n\n", plan.Entity, plan.SchemaVersion)
	t := ui.NewTable(os.Stdout)
	t.Row("PATH", "UNIQUE")
	for _, spec := range plan.Specs {
		unique := ""
		if spec.Unique {
			unique = "yes"
		}
		t.Row(spec.Path, unique)
	}
	t.Flush()
}
