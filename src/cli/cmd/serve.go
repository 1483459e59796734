package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/feedkeeper/feedkeeper/src/feed"
	"github.com/feedkeeper/feedkeeper/src/logging"
	"github.com/feedkeeper/feedkeeper/src/repository"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the package feed server",
	Long:  "Boots the repository engine (watcher, rebuild and persistence timers) and serves it over HTTP until interrupted.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.Init(verbose)

	engine, err := repository.New(cfg, log)
	if err != nil {
		return fmt.Errorf("constructing repository engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("starting repository engine: %w", err)
	}
	defer engine.Stop()

	srv := &http.Server{
		Addr:    serveAddr,
		Handler: feed.New(engine, nil).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", serveAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
