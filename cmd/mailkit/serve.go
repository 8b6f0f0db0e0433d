package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dmitrymomot/mailkit/pkg/preview"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the preview API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), appFrom(cmd))
		},
	}

	cmd.Flags().String("addr", ":8025", "listen address")
	cmd.Flags().String("reload", "", `cron spec for reloading templates (adds, replaces and removes), e.g. "*/5 * * * *"`)
	_ = v.BindPFlag("serve.addr", cmd.Flags().Lookup("addr"))
	_ = v.BindPFlag("serve.reload", cmd.Flags().Lookup("reload"))
	return cmd
}

func serve(ctx context.Context, a *app) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if a.cfg.Serve.Reload != "" {
		scheduler, err := scheduleReload(ctx, a)
		if err != nil {
			return err
		}
		defer func() { <-scheduler.Stop().Done() }()
	}

	server := &http.Server{
		Handler:           preview.NewHandler(a.registry, a.registry, a.cids, a.logger, preview.WithChecks(a.checks)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", a.cfg.Serve.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("preview server starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down preview server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Serve.ShutdownTimeout)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// scheduleReload re-reads the template directory on the configured cron spec.
// Deleted template directories are unregistered. A failed reload keeps
// serving whatever is registered.
func scheduleReload(ctx context.Context, a *app) (*cron.Cron, error) {
	scheduler := cron.New()
	_, err := scheduler.AddFunc(a.cfg.Serve.Reload, func() {
		removed, err := a.reload(ctx)
		if err != nil {
			a.logger.ErrorContext(ctx, "template reload failed", slog.String("error", err.Error()))
			return
		}
		a.logger.DebugContext(ctx, "templates reloaded",
			slog.Int("count", a.registry.Len()),
			slog.Any("removed", removed),
		)
	})
	if err != nil {
		return nil, err
	}
	scheduler.Start()
	return scheduler, nil
}
