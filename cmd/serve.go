package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"damage-vision/internal/api"
	"damage-vision/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить HTTP API анализа повреждений и документов",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, c, err := setup()
		if err != nil {
			return err
		}
		defer c.Close()
		defer log.Sync()

		handler := api.NewHandler(c.AssessmentService, c.DocumentService, cfg.App.MaxUploadSize, log)
		srv := server.New(cfg, handler, log)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Run(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", zap.Error(err))
			return err
		}

		log.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
