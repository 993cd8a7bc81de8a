package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-once",
		Short: "Run a single scrape cycle, print the outcome and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runOnce(ctx, cfgFile, cmd)
		},
	}
}

func runOnce(ctx context.Context, cfgPath string, cmd *cobra.Command) error {
	a, err := newApp(ctx, ctx, cfgPath)
	if err != nil {
		return err
	}
	defer a.close()

	out, err := a.coord.Trigger(ctx, "cli")
	a.coord.Wait()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
