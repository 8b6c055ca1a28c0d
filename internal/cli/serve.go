package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"infinite-experiment/flightlog/internal/api"
	"infinite-experiment/flightlog/internal/logging"
	"infinite-experiment/flightlog/internal/routes"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the log read-only over HTTP (JSON, GeoJSON, metrics)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			handler := routes.RegisterRoutes(api.NewHandlers(a.store, time.Now()), a.metrics, routes.Options{
				RateLimit: a.cfg.Serve.RateLimit,
				RateBurst: a.cfg.Serve.RateBurst,
			})

			srv := &http.Server{
				Addr:              a.cfg.Serve.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logging.Info("Server starting", "addr", srv.Addr, "environment", a.cfg.AppEnv)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
			}

			logging.Info("Server shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default \":8080\")")
	return cmd
}
