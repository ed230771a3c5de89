package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/infyemailer-backoffice/internal/app"
	"github.com/infyemailer-backoffice/internal/platform/messaging/consumers"
)

var errKafkaDisabled = errors.New("ledger topic is not enabled (set KAFKA_ENABLED=true)")

// mirrorSyncCmd replays the ledger topic into the MongoDB history mirror until
// interrupted. Mirror writes are upserts, so replaying an event twice is harmless.
func mirrorSyncCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "mirror-sync",
		Short: "Replay ledger events from Kafka into the MongoDB history mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, open, func(rt *app.Runtime) error {
				if rt.Mirror == nil {
					return errMirrorDisabled
				}
				if !rt.Config.Kafka.Enabled {
					return errKafkaDisabled
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				consumer := consumers.NewLedgerEventConsumer(rt.Logger, &rt.Config.Kafka)
				defer consumer.Close()

				return consumer.Run(ctx, rt.Mirror.Deliver)
			})
		},
	}
}
