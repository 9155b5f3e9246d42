// Package server exposes the orchestration engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/user/creatordesk/internal/types"
)

// AgentHandler processes one orchestration request.
type AgentHandler func(ctx context.Context, req *types.AgentRequest) (*types.AgentResponse, error)

// Server is a lightweight HTTP handler for the agent endpoints.
type Server struct {
	handler AgentHandler
	logger  *slog.Logger
	mux     *http.ServeMux
}

// NewServer creates a Server routing to the given handler callback.
func NewServer(handler AgentHandler, logger *slog.Logger) *Server {
	s := &Server{
		handler: handler,
		logger:  logger.With("component", "server"),
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /agent", s.handleAgent)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	var req types.AgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, `{"error":"query is required"}`, http.StatusBadRequest)
		return
	}

	req.UserID = userFromRequest(r)

	resp, err := s.handler(r.Context(), &req)
	if err != nil {
		s.logger.Error("agent handler failed", "user", req.UserID, "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// userFromRequest treats the auth header as an opaque identity. Requests
// without one share the anonymous scope.
func userFromRequest(r *http.Request) types.UserID {
	auth := r.Header.Get("Authorization")
	auth = strings.TrimPrefix(auth, "Bearer ")
	auth = strings.TrimSpace(auth)
	if auth == "" {
		return "anonymous"
	}
	return types.UserID(auth)
}
