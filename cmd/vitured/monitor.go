package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vitured/pkg/engine"
	"vitured/pkg/monitor"
)

func (a *app) monitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "live terminal view of the IMU stream",
		Long: `monitor shows the latest orientation sample and session counters.
Keys: i toggles the IMU, 3/2 switch display mode, f cycles the IMU
frequency, g queries device state, q quits.`,
		Args: cobra.NoArgs,
		RunE: a.runMonitor,
	}
}

func (a *app) runMonitor(cmd *cobra.Command, _ []string) error {
	sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	hub := engine.NewHub()
	go hub.Run(ctx)

	sub := hub.Subscribe()
	sess, err := a.openSession(hub, a.factory())
	if err != nil {
		return err
	}
	defer sess.Close()

	model := monitor.New(sess, sub, monitor.WithStats(sess.Stats))
	in := cmd.InOrStdin()
	if in == os.Stdin {
		in = nil
	}
	return monitor.Run(ctx, model, in, cmd.OutOrStdout())
}
