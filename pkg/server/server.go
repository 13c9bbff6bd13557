// Package server runs an http.Server until its context is cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const DefaultShutdownTimeout = 20 * time.Second

type Server struct {
	*http.Server
	Logger *slog.Logger
	// ShutdownTimeout bounds the graceful shutdown. The default is DefaultShutdownTimeout.
	ShutdownTimeout time.Duration
	// CleanUpFuncs is a list of functions that will be called when the server has shutdown.
	CleanUpFuncs []func(ctx context.Context)
}

// Start serves until ctx is done, then shuts the server down gracefully and runs the clean up functions.
// It returns nil after a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := s.ShutdownTimeout
	if timeout == 0 {
		timeout = DefaultShutdownTimeout
	}

	s.Server.BaseContext = func(_ net.Listener) context.Context {
		return ctx
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Info("server shutting down", slog.String("addr", s.Addr))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := s.Server.Shutdown(shutdownCtx)
		for _, cf := range s.CleanUpFuncs {
			cf(shutdownCtx)
		}
		if err != nil {
			done <- fmt.Errorf("server shutdown: %w", err)
			return
		}
		done <- nil
	}()

	logger.Info("server started", slog.String("addr", s.Addr))

	err := s.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server exit: %w", err)
	}
	return <-done
}
