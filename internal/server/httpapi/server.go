// Package httpapi exposes the EventHub services as a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/eventhub/internal/logging"
	"github.com/dmitrijs2005/eventhub/internal/server/services"
	"github.com/dmitrijs2005/eventhub/internal/validation"
)

// shutdownTimeout bounds how long in-flight requests may take after the
// server is asked to stop.
const shutdownTimeout = 10 * time.Second

// Services groups the business services the API dispatches to.
type Services struct {
	Users         *services.UserService
	Reset         *services.PasswordResetService
	Guard         *services.Guard
	Events        *services.EventService
	Registrations *services.RegistrationService
}

type Server struct {
	address        string
	logger         logging.Logger
	svc            Services
	validate       *validation.Validator
	allowedOrigins map[string]struct{}
}

// NewServer builds a Server listening on address. Browser requests from
// allowedOrigins get CORS headers.
func NewServer(address string, l logging.Logger, svc Services, allowedOrigins ...string) *Server {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o != "" {
			origins[o] = struct{}{}
		}
	}
	return &Server{
		address:        address,
		logger:         l.With("module", "http_server"),
		svc:            svc,
		validate:       validation.New(),
		allowedOrigins: origins,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-stopped
	return nil
}
