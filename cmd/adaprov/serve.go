package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scteam/adaprov"
	"github.com/scteam/adaprov/events"
	"github.com/scteam/adaprov/internal/config"
	"github.com/scteam/adaprov/internal/jobstore"
	"github.com/scteam/adaprov/internal/server"
)

func newServeCmd(settings *config.Settings) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the provisioning job server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), settings, port)
		},
	}
	cmd.Flags().IntVar(&port, "port", settings.Port, "listen port")
	return cmd
}

func runServe(ctx context.Context, settings *config.Settings, port int) error {
	store := jobstore.New()
	logHook := events.NewSlogHook(nil)

	run := func(ctx context.Context, req adaprov.ProvisioningRequest, hook events.Hook) (*adaprov.ProvisioningResult, error) {
		p, err := buildProvisioner(settings, events.Hooks{hook, logHook})
		if err != nil {
			return nil, err
		}
		return p.Run(ctx, req)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           server.New(store, run).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", port).Msg("job server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
