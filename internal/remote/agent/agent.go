// Package agent runs on remote browser hosts and executes commands
// dispatched by the check runner, streaming output back over WebSocket.
package agent

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/golang-jwt/jwt"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/driftlabs/webcheck/internal/config"
	"github.com/driftlabs/webcheck/internal/remote"
	"github.com/driftlabs/webcheck/pkg/logger"
)

type Server struct {
	listenAddr    string
	secret        string
	workDirPrefix string
	upgrader      websocket.Upgrader
}

func NewServer(cfg config.AgentConfig) *Server {
	return &Server{
		listenAddr:    cfg.ListenAddr,
		secret:        cfg.Secret,
		workDirPrefix: cfg.WorkDirPrefix,
		upgrader:      websocket.Upgrader{},
	}
}

// workDirAllowed reports whether a requested working directory falls
// under the configured prefix. An empty prefix allows everything.
func (s *Server) workDirAllowed(dir string) bool {
	if s.workDirPrefix == "" {
		return true
	}
	dir = filepath.Clean(dir)
	prefix := filepath.Clean(s.workDirPrefix)
	return dir == prefix || strings.HasPrefix(dir, prefix+string(filepath.Separator))
}

// Router exposes /ws for command execution, /healthz and /metrics.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/ws", s.auth(http.HandlerFunc(s.handleWS)))
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

func (s *Server) ListenAndServe() error {
	log := logger.WithComponent("agent")
	log.Info().Str("addr", s.listenAddr).Msg("Agent listening")
	return http.ListenAndServe(s.listenAddr, s.Router())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// auth validates the bearer token when a shared secret is configured.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.secret == "" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		tokenStr := strings.TrimPrefix(header, "Bearer ")
		if tokenStr == "" || tokenStr == header {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(s.secret), nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("agent")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		var req remote.Request
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("Connection closed")
			}
			return
		}
		s.runCommand(conn, req)
	}
}
