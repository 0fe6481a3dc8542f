package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	serverhttp "merchant-recon/server/http"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reconciliation HTTP API",
		Example: `  merchant-recon serve --port 8082
  RECON_GEOCODE_REDIS_ADDR=localhost:6379 merchant-recon serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	fs := cmd.Flags()
	fs.String("host", "127.0.0.1", "bind address")
	fs.IntP("port", "p", 8082, "listen port")
	fs.Int("max-upload-mb", 256, "request body limit in MB")
	a.bind(fs, map[string]string{
		"server.host":          "host",
		"server.port":          "port",
		"server.max_upload_mb": "max-upload-mb",
	})
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	// the router gives every request its own cache over this provider
	locator, release, err := newLocator(ctx, cfg.Geocode, logger)
	if err != nil {
		return err
	}
	defer release()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           serverhttp.NewRouter(*cfg, locator, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info().Str("addr", cfg.Addr()).Msg("server starting")

	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("bye")
	return nil
}
