package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"vitured/pkg/console"
	"vitured/pkg/engine"
	"vitured/pkg/logger"
)

func (a *app) consoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "interactive command loop",
		Long: `console reads one command per line from stdin:
  imuon imuoff 3d 2d get3d getimu fq60 fq90 fq120 fq240 getfq help quit
Decoded IMU data is printed to stderr.`,
		Args: cobra.NoArgs,
		RunE: a.runConsole,
	}
}

func (a *app) runConsole(cmd *cobra.Command, _ []string) error {
	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)

	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	hub := engine.NewHub()
	go hub.Run(ctx)

	sub := hub.Subscribe()
	sess, err := a.openSession(hub, a.factory())
	if err != nil {
		return err
	}
	defer sess.Close()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.NewTextWriter(cmd.ErrOrStderr()).Consume(ctx, sub)
	}()

	return console.New(sess, cmd.OutOrStdout()).Run(ctx, cmd.InOrStdin())
}
