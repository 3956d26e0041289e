package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/agenthands/kbguard/internal/trigger"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Analyze documents as the ingestion pipeline announces them on NATS",
	RunE:  runListen,
}

func runListen(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	det, err := a.duplicateDetector(ctx)
	if err != nil {
		return err
	}

	nc, err := nats.Connect(a.cfg.NATS.URL, nats.Name("kbguard"))
	if err != nil {
		return fmt.Errorf("connect to NATS at %s: %w", a.cfg.NATS.URL, err)
	}
	defer nc.Close()

	return trigger.NewListener(det, a.cfg.NATS, a.logger).Run(ctx, nc)
}
