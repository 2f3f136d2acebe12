package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/groblegark/dynrec/internal/events"
	"github.com/groblegark/dynrec/internal/ui"
)

// watchEvent is the union of the schema and audit event wire shapes; only
// the fields present in a given payload are filled in.
type watchEvent struct {
	EventType  string            `json:"eventType,omitempty"`
	Action     string            `json:"action,omitempty"`
	EntityName string            `json:"entityName,omitempty"`
	Entity     string            `json:"entity,omitempty"`
	Actor      string            `json:"actor,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Details    map[string]any    `json:"details,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func defaultNATSURL() string {
	if s := os.Getenv("DYNREC_NATS_URL"); s != "" {
		return s
	}
	return activeRemote().NATSURL
}

var watchCmd = &cobra.Command{
	Use:   "watch [entity]",
	Short: "Stream schema and record events, optionally scoped to one entity",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			natsURL = defaultNATSURL()
		}
		if natsURL == "" {
			return fmt.Errorf("no NATS URL configured (use --nats or DYNREC_NATS_URL)")
		}
		entity := ""
		if len(args) == 1 {
			entity = args[0]
		}

		sub, err := events.NewNATSSubscriber(natsURL)
		if err != nil {
			return err
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe("dynrec.>")
		if err != nil {
			return err
		}
		defer cancel()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Fprintf(os.Stderr, "watching %s (ctrl-c to stop)\n", natsURL)
		for {
			select {
			case <-ctx.Done():
				return nil
			case data, ok := <-ch:
				if !ok {
					return nil
				}
				printEvent(data, entity)
			}
		}
	},
}

func printEvent(data []byte, entityFilter string) {
	var ev watchEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		fmt.Fprintf(os.Stderr, "unparseable event: %v\n", err)
		return
	}

	entity := ev.Entity
	if entity == "" {
		entity = ev.EntityName
	}
	if entityFilter != "" && entity != entityFilter {
		return
	}

	kind := ev.Action
	if kind == "" {
		kind = ev.EventType
	}

	detail := ""
	if id, ok := ev.Details["recordId"].(string); ok {
		detail = id
	}

	fmt.Printf("%s  %s  %s  %s\n",
		ui.RenderMuted(ev.Timestamp.Format("15:04:05")),
		ui.RenderAccent(kind),
		entity,
		detail,
	)
}

func init() {
	watchCmd.Flags().String("nats", "", "NATS server URL")
}
