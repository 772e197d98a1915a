// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

// Package control provides an HTTP control socket for process management.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/nickgate/nickgate/internal/xdg"
)

// HealthResponse is returned by the /health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// StatusResponse is returned by the /status endpoint.
type StatusResponse struct {
	Running       bool  `json:"running"`
	PID           int   `json:"pid"`
	UptimeSeconds int64 `json:"uptime_seconds"`
	LiveSessions  int   `json:"live_sessions"`
}

// ShutdownResponse is returned by the /shutdown endpoint.
type ShutdownResponse struct {
	Message string `json:"message"`
}

// ShutdownFunc is called when shutdown is requested.
type ShutdownFunc func()

// SessionCounter returns the number of live user sessions for /status.
type SessionCounter func() int

// CheckFunc performs a one-off credential check for the /check endpoint.
type CheckFunc func(ctx context.Context, account, password string) bool

// CheckRequest is the body of a /check request.
type CheckRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

// CheckResponse is returned by the /check endpoint.
type CheckResponse struct {
	Account string `json:"account"`
	Valid   bool   `json:"valid"`
}

// GateFunc reports whether a host command is blocked and with what message.
type GateFunc func(command string) (message string, blocked bool)

// GateRequest is the body of a /gate request.
type GateRequest struct {
	Command string `json:"command"`
}

// GateResponse is returned by the /gate endpoint.
type GateResponse struct {
	Command string `json:"command"`
	Blocked bool   `json:"blocked"`
	Message string `json:"message,omitempty"`
}

// Server runs HTTP over a Unix socket for process management.
type Server struct {
	startTime    time.Time
	listener     net.Listener
	httpServer   *http.Server
	socketPath   string
	shutdownFunc ShutdownFunc
	sessions     SessionCounter
	check        CheckFunc
	gate         GateFunc
	running      atomic.Bool
}

// NewServer creates a new control socket server. check and gate may be nil,
// which disables the corresponding endpoint.
func NewServer(shutdownFunc ShutdownFunc, sessions SessionCounter, check CheckFunc, gate GateFunc) *Server {
	s := &Server{
		startTime:    time.Now(),
		shutdownFunc: shutdownFunc,
		sessions:     sessions,
		check:        check,
		gate:         gate,
	}
	s.running.Store(true)
	return s
}

// SocketPath returns the path to the Unix socket.
func SocketPath() string {
	return filepath.Join(xdg.RuntimeDir(), "nickgate.sock")
}

// Start begins listening on the Unix socket.
func (s *Server) Start() error {
	socketPath := SocketPath()
	s.socketPath = socketPath

	if err := xdg.EnsureDir(filepath.Dir(socketPath)); err != nil {
		return fmt.Errorf("failed to create runtime directory: %w", err)
	}

	// A stale socket from a previous run would block the listen.
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /shutdown", s.handleShutdown)
	if s.check != nil {
		mux.HandleFunc("POST /check", s.handleCheck)
	}
	if s.gate != nil {
		mux.HandleFunc("POST /gate", s.handleGate)
	}

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("control socket server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the control socket server.
func (s *Server) Stop(ctx context.Context) error {
	s.running.Store(false)

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown http server: %w", err)
		}
	}

	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Warn("failed to close control socket listener", "error", err)
		}
	}

	if s.socketPath != "" {
		if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove control socket file",
				"path", s.socketPath,
				"error", err,
			)
		}
	}

	return nil
}

// handleHealth returns health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		slog.Error("failed to write health response", "error", err)
	}
}

// handleStatus returns running status.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	live := 0
	if s.sessions != nil {
		live = s.sessions()
	}
	resp := StatusResponse{
		Running:       s.running.Load(),
		PID:           os.Getpid(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		LiveSessions:  live,
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		slog.Error("failed to write status response", "error", err)
	}
}

// handleShutdown initiates graceful shutdown.
func (s *Server) handleShutdown(w http.ResponseWriter, _ *http.Request) {
	resp := ShutdownResponse{
		Message: "shutdown initiated",
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		slog.Error("failed to write shutdown response", "error", err)
	}

	if s.shutdownFunc != nil {
		go s.shutdownFunc()
	}
}

// handleCheck runs an operator-initiated credential check through the full
// verification pipeline. Diagnostic surface only; the socket is owner-only.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Account == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	valid := s.check(r.Context(), req.Account, req.Password)
	resp := CheckResponse{Account: req.Account, Valid: valid}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		slog.Error("failed to write check response", "error", err)
	}
}

// handleGate reports whether an account-management command would be blocked
// by the command gate, and with what user-facing message.
func (s *Server) handleGate(w http.ResponseWriter, r *http.Request) {
	var req GateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Command == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	message, blocked := s.gate(req.Command)
	resp := GateResponse{Command: req.Command, Blocked: blocked, Message: message}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		slog.Error("failed to write gate response", "error", err)
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}
	return nil
}
