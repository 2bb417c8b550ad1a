package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/flomesh-io/fsm-policy/pkg/constants"
	"github.com/flomesh-io/fsm-policy/pkg/version"
)

// httpServer serves the metrics, health probes and version of the controller on every replica
type httpServer struct {
	server *http.Server
}

func newHTTPServer(addr string, handlers map[string]http.Handler) *httpServer {
	mux := http.NewServeMux()
	for path, handler := range handlers {
		mux.Handle(path, handler)
	}

	return &httpServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NeedLeaderElection implements the controller-runtime LeaderElectionRunnable interface
func (s *httpServer) NeedLeaderElection() bool {
	return false
}

// Start serves until ctx is done
func (s *httpServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("Serving metrics and health probes on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "metrics and health server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.HTTPServerShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func versionHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(version.GetInfo()); err != nil {
			log.Error().Err(err).Msg("Error writing version info")
		}
	})
}
