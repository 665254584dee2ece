package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ocelot/tunesd/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the download service HTTP API until interrupted.
//
// In-flight jobs are drained before the process exits.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.components(); err != nil {
		return err
	}
	defer r.close()

	host := r.config.Server.Host
	port := r.config.Server.Port
	if cmd.String("host") != "" {
		host = cmd.String("host")
	}
	if cmd.Int("port") != 0 {
		port = cmd.Int("port")
	}

	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))

	handlers := server.NewHandlers(server.HandlersOpts{
		Manager:  r.manager,
		Tracks:   r.tracks,
		Songs:    r.videoSearch,
		Albums:   r.albumSearch,
		Logger:   r.logger,
		MaxSongs: r.config.Downloads.MaxSongs,
	})
	handlers.Register(router)

	addr := fmt.Sprintf("%s:%d", host, port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("download service listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("forced shutdown", "error", err)
	}

	r.logger.Info("waiting for active downloads to finish")
	r.manager.Wait()
	return nil
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the download service HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (overrides config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to bind (overrides config)",
			},
		},
		Action: r.Serve,
	}
}
