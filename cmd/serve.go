package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/spotshuffle/internal/server"
	"github.com/desertthunder/spotshuffle/internal/session"
	"github.com/desertthunder/spotshuffle/internal/shared"
	"github.com/desertthunder/spotshuffle/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the web front end until ctx is cancelled.
//
// The callback route follows the path of the configured redirect URI, which must point at this server.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	switch config.Server.SessionSecret {
	case "":
		return fmt.Errorf("%w: server.session_secret is required", shared.ErrInvalidConfig)
	case shared.DefaultConfig().Server.SessionSecret:
		return fmt.Errorf("%w: server.session_secret still has its placeholder value", shared.ErrInvalidConfig)
	}

	_, callbackPath, err := server.CallbackAddr(config.Spotify.RedirectURI)
	if err != nil {
		return err
	}

	engine, closeEngine, err := r.newEngine(config)
	if err != nil {
		return err
	}
	defer closeEngine()

	app := web.NewApp(engine, session.NewCookieStore(config.Server.SessionSecret), callbackPath,
		shared.WithLogger(r.logger, "component", "web"))

	httpServer := &http.Server{
		Addr:              config.Server.Addr(),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting web server", "addr", httpServer.Addr, "callback", callbackPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	r.writePlain("→ Open http://%s/ in your browser\n", httpServer.Addr)

	select {
	case err, ok := <-serverErrors:
		if ok {
			return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
