// Package eqserver exposes the equity calculator over a websocket, one
// calculation per connection: a client sends a "calculate" message and
// receives periodic "progress" messages followed by a final "done",
// following this codebase's existing connection-registry server pattern.
package eqserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/equityprobe/internal/eqconfig"
)

// Server accepts websocket connections and tracks them for shutdown.
type Server struct {
	addr     string
	cfg      *eqconfig.Config
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu          sync.Mutex
	connections map[*Connection]bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer builds a Server listening on addr, using cfg for preset lookup
// and default engine options on every calculation it runs.
func NewServer(addr string, cfg *eqconfig.Config, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr: addr,
		cfg:  cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		logger:      logger.WithPrefix("eqserver"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start blocks serving HTTP until the server's context is cancelled or
// ListenAndServe returns an error.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/equity", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	httpServer := &http.Server{Addr: s.addr, Handler: mux}
	go func() {
		<-s.ctx.Done()
		_ = httpServer.Close()
	}()

	s.logger.Info("starting equity websocket server", "addr", s.addr)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop cancels every in-flight calculation and closes every connection.
func (s *Server) Stop() error {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	c := NewConnection(conn, s.logger, s.cfg)
	s.mu.Lock()
	s.connections[c] = true
	s.mu.Unlock()
	s.logger.Info("client connected", "total", len(s.connections))

	c.Start()

	go func() {
		<-c.ctx.Done()
		s.mu.Lock()
		delete(s.connections, c)
		total := len(s.connections)
		s.mu.Unlock()
		s.logger.Info("client disconnected", "total", total)
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "OK")
}
