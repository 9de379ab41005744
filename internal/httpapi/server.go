package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nextlevelbuilder/leadline/internal/relay"
)

// Server exposes the webhook and health endpoints to the messaging
// gateway. The gateway waits synchronously for {response}.
type Server struct {
	host     string
	port     int
	token    string
	pipeline *relay.Pipeline
	limiter  *relay.WebhookRateLimiter
	started  time.Time
	version  string

	httpServer *http.Server
}

type ServerConfig struct {
	Host         string
	Port         int
	Token        string
	RateLimitRPM int
	Version      string
}

func NewServer(cfg ServerConfig, pipeline *relay.Pipeline) *Server {
	return &Server{
		host:     cfg.Host,
		port:     cfg.Port,
		token:    cfg.Token,
		pipeline: pipeline,
		limiter:  relay.NewWebhookRateLimiter(cfg.RateLimitRPM),
		started:  time.Now(),
		version:  cfg.Version,
	}
}

// BuildMux creates the HTTP mux with all routes registered.
func (s *Server) BuildMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/sms", s.auth(s.handleWebhook))
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start blocks serving HTTP until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.host, fmt.Sprintf("%d", s.port))
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.BuildMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("http.listening", "addr", addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight turns.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && extractBearerToken(r) != s.token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

func extractBearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("http.write_failed", "error", err)
	}
}
