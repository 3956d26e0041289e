package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agenthands/kbguard/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve exposes both pipelines over HTTP under /v1, with /healthz and
/metrics alongside.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides [server].addr)")
	_ = viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	dups, err := a.duplicateDetector(ctx)
	if err != nil {
		return err
	}
	abr, err := a.abrogationDetector(ctx)
	if err != nil {
		return err
	}

	if viper.GetString("log_level") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.NewServer(dups, abr)
	srv.Logger = a.logger
	srv.Ready = a.ready
	srv.Metrics = promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})

	addr := a.cfg.Server.Addr
	if v := viper.GetString("addr"); v != "" {
		addr = v
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
