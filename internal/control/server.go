// Package control exposes a running daemon over a unix socket, and the
// client the CLI uses to talk to it. The socket doubles as the liveness
// signal: if nothing answers a ping there, no daemon is running.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

const shutdownGrace = 2 * time.Second

// Daemon is the surface the server exposes on the socket.
type Daemon interface {
	Status() domain.Status
	// RequestStop asks the daemon to shut down. It must not block: the
	// HTTP response has to go out before the process exits.
	RequestStop()
}

// PingResponse answers liveness checks without the full status payload.
type PingResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version"`
	PID     int    `json:"pid"`
}

type stopResponse struct {
	Stopping bool `json:"stopping"`
}

// Server serves the control API on a unix socket.
type Server struct {
	socketPath string
	daemon     Daemon
	logger     *zap.Logger

	httpSrv *http.Server
}

// NewServer creates a control server. Start must be called to listen.
func NewServer(socketPath string, d Daemon, logger *zap.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		daemon:     d,
		logger:     logger,
	}
}

// Start listens on the socket and serves in the background. A leftover
// socket file from a crashed run is removed first; the caller has already
// established via ping that no live daemon owns it.
func (s *Server) Start() error {
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return err
	}

	// Same-user only: the socket carries state and the stop trigger.
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		ln.Close()
		return err
	}

	r := chi.NewRouter()
	r.Get("/v1/ping", s.handlePing)
	r.Get("/v1/status", s.handleStatus)
	r.Post("/v1/stop", s.handleStop)

	s.httpSrv = &http.Server{Handler: r}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("control server failed", zap.Error(err))
		}
	}()

	s.logger.Info("control socket listening", zap.String("path", s.socketPath))
	return nil
}

// Close stops serving and removes the socket file.
func (s *Server) Close() error {
	if s.httpSrv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	err := s.httpSrv.Shutdown(ctx)
	if rmErr := os.Remove(s.socketPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) && err == nil {
		err = rmErr
	}
	return err
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	st := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, PingResponse{OK: true, Version: st.Version, PID: st.PID})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Status())
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	s.logger.Info("stop requested over control socket")
	s.daemon.RequestStop()
	s.writeJSON(w, http.StatusOK, stopResponse{Stopping: true})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("control response write failed", zap.Error(err))
	}
}
