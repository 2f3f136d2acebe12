package main

import (
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/groblegark/dynrec/internal/client"
	"github.com/groblegark/dynrec/internal/ui"
)

var (
	serverURL  string
	authToken  string
	actor      string
	jsonOutput bool
	noColor    bool

	api *client.HTTPClient
)

func defaultActor() string {
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		name := strings.TrimSpace(string(out))
		if name != "" {
			return name
		}
	}
	return "unknown"
}

func defaultServerURL() string {
	if s := os.Getenv("DYNREC_URL"); s != "" {
		return s
	}
	if r := activeRemote(); r.URL != "" {
		return r.URL
	}
	return "http://localhost:8080"
}

func defaultToken() string {
	if s := os.Getenv("DYNREC_TOKEN"); s != "" {
		return s
	}
	return activeRemote().Token
}

var rootCmd = &cobra.Command{
	Use:   "drc",
	Short: "CLI client for the dynrec service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			ui.ForceNoColor()
		}
		api = client.NewHTTPClient(serverURL, authToken, actor)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", defaultServerURL(), "server base URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultToken(), "bearer token for authentication")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor(), "actor name recorded on mutations")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(fieldCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(deprecateCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(indexesCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(patchCmd)
	rootCmd.AddCommand(replaceCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
