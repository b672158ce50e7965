package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/workdeskhq/workdesk/internal/core/events"
	"github.com/workdeskhq/workdesk/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Manage change events: publish test events and inspect fan-out behavior`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [kind]",
	Short: "Publish a test change event",
	Long:  `Publish a test change event to the in-process bus for debugging subscriber wiring`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent(args[0])
	},
}

var eventData string

func publishTestEvent(kind string) {
	lg := logger.LoggerWrapper()

	bus := events.NewBus(lg)

	unsubscribe := bus.Subscribe(kind, func(ctx context.Context, event events.ChangeEvent) error {
		lg.Info("test handler received change event",
			"event_id", event.ID,
			"kind", event.Kind,
			"change_type", event.Type,
			"record", event.Record)
		return nil
	})
	defer unsubscribe()

	event := events.ChangeEvent{
		ID:   fmt.Sprintf("test-%d", time.Now().Unix()),
		Kind: kind,
		Type: events.ChangeModified,
		Record: map[string]interface{}{
			"message": eventData,
			"source":  "cli-command",
		},
		OccurredAt: time.Now(),
	}

	lg.Info("publishing test change event", "kind", kind, "event_id", event.ID)

	if err := bus.PublishSync(context.Background(), event); err != nil {
		lg.Error("failed to publish event", "error", err)
		return
	}

	lg.Info("test change event published successfully")
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
