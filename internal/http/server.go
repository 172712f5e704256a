package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	log    *logger.Logger
	server *http.Server
}

func NewServer(log *logger.Logger, addr string, cfg RouterConfig) *Server {
	serverLog := log.With("component", "HTTPServer")
	return &Server{
		log: serverLog,
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(cfg),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests
// before returning.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("HTTP server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("HTTP server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
