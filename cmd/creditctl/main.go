// Command creditctl administers the credit ledger directly against the
// configured snapshot backend.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/infyemailer-backoffice/internal/app"
	"github.com/infyemailer-backoffice/internal/config"
	"github.com/infyemailer-backoffice/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// opener builds the runtime a command operates on.
type opener func(ctx context.Context) (*app.Runtime, error)

func main() {
	if err := rootCmd(os.Stdout, openFromConfig).Execute(); err != nil {
		os.Exit(1)
	}
}

// openFromConfig loads creditctl.env and the environment. Logs go to stderr so
// that stdout carries only command output.
func openFromConfig(ctx context.Context) (*app.Runtime, error) {
	cfg, err := config.LoadConfig("creditctl")
	if err != nil {
		return nil, err
	}
	return app.Start(ctx, cfg, logger.New(os.Stderr, cfg))
}

func rootCmd(out io.Writer, open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "creditctl",
		Short:         "Inspect and change system and client credit balances",
		Version:       version,
		SilenceUsage: true,
	}
	root.SetOut(out)

	root.AddCommand(
		balanceCmd(open),
		historyCmd(open),
		allocateCmd(open),
		changeCmd(open, "add", "Add credits to the system or a client balance"),
		changeCmd(open, "deduct", "Deduct credits from the system or a client balance"),
		changeCmd(open, "set", "Set the system or a client balance"),
		clientsCmd(open),
		mirrorSyncCmd(open),
	)
	return root
}

// withRuntime opens the runtime, runs fn and closes the runtime, reporting the
// first error.
func withRuntime(cmd *cobra.Command, open opener, fn func(rt *app.Runtime) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if closeErr := rt.Close(ctx); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close store: %w", closeErr)
		}
	}()

	return fn(rt)
}
