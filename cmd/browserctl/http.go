package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpadapter "browser-dispatch/internal/adapter/http"

	"github.com/spf13/cobra"
)

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Serve the tools as a JSON HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := newContainer(cmd)
		if err != nil {
			return err
		}
		defer container.Close()

		addr := container.Config.HTTPAddr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		handler := httpadapter.NewHandler(container.Dispatcher, container.Session, container.Logger, httpadapter.Options{
			RequestLogLevel: container.Config.LogLevel,
			JSONLogs:        container.Config.LogFormat == "json",
		})

		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx := cmd.Context()
		serverErrors := make(chan error, 1)
		go func() {
			container.Logger.Info("HTTP server listening", "address", addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
			container.Logger.Info("HTTP server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(httpCmd)
	httpCmd.Flags().String("addr", ":8080", "Listen address (overrides HTTP_ADDR)")
}
