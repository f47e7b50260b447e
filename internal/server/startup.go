package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"resumeforge/internal/config"
)

const shutdownTimeout = 30 * time.Second

// Start serves until ctx is cancelled, then shuts down gracefully.
// Cancel ctx on SIGINT/SIGTERM.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(s.Host, s.Port),
		Handler:           s.Handler(),
		ReadTimeout:       s.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       s.IdleTimeout,
	}

	watcher, err := s.startPromptWatcher()
	if err != nil {
		return err
	}
	if watcher != nil {
		defer func() {
			if err := watcher.Stop(); err != nil {
				s.Logger.LogError(err, "Failed to stop prompt watcher")
			}
		}()
	}

	s.displayServerInfo()

	serverErrors := make(chan error, 1)
	go func() {
		s.Logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.Logger.Info("Received shutdown signal, starting graceful shutdown")
		return s.performGracefulShutdown(httpServer)
	}
}

// startPromptWatcher reloads prompt files while serving when enabled
func (s *Server) startPromptWatcher() (*config.PromptWatcher, error) {
	if !s.AppConfig.Server.WatchPrompts || s.deps.Prompts == nil {
		return nil, nil
	}

	watcher := config.NewPromptWatcher(s.deps.Prompts, s.AppConfig.Server.DebounceDelay, func(path string) {
		s.Logger.Info("Prompt file reloaded", "path", path)
	}, s.Logger)
	if err := watcher.Start(); err != nil {
		return nil, fmt.Errorf("failed to start prompt watcher: %w", err)
	}
	return watcher, nil
}

func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.Close()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}
