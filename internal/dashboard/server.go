// internal/dashboard/server.go
//
// A local stub implementation of the coordinator dashboard, used for
// development and tests when no real coordinator is deployed. It keeps
// agents and the activity feed in memory and serves the same endpoints
// the client posts to.

package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// ServerStatus reports runtime lifecycle states for the stub server.
type ServerStatus string

const (
	StatusStarting ServerStatus = "starting"
	StatusReady    ServerStatus = "ready"
	StatusDraining ServerStatus = "draining"
)

// Logger records stub status information. It matches logbook.Logbook's
// Info signature.
type Logger interface {
	Info(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}

// AgentRecord is the stub's view of one registered agent.
type AgentRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	Activity  string    `json:"activity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActivityEntry is one line of the stub's activity feed.
type ActivityEntry struct {
	Agent    string    `json:"agent"`
	Message  string    `json:"message"`
	PostedAt time.Time `json:"posted_at"`
}

// Server wraps the HTTP listener and handlers backing the stub dashboard.
type Server struct {
	settings Settings
	logger   Logger
	clock    func() time.Time

	mu        sync.RWMutex
	server    *http.Server
	listener  net.Listener
	status    ServerStatus
	startTime time.Time
	agents    map[string]AgentRecord
	activity  []ActivityEntry
}

// ServerOption customizes server construction.
type ServerOption func(*Server)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) ServerOption {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewServer prepares a stub dashboard using the provided settings.
func NewServer(settings Settings, opts ...ServerOption) *Server {
	s := &Server{
		settings: settings,
		logger:   nopLogger{},
		clock:    func() time.Time { return time.Now().UTC() },
		status:   StatusStarting,
		agents:   map[string]AgentRecord{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Start binds the TCP listener and begins serving HTTP traffic.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("dashboard: server is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("dashboard: server already started")
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("dashboard: listen %s: %w", addr, err)
	}
	s.listener = listener
	s.startTime = s.clock()
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard", s.handleDashboard)
	mux.HandleFunc("/api/iteration/status", s.handleIterationStatus)
	mux.HandleFunc("/api/agent/register", s.handleRegister)
	mux.HandleFunc("/api/agent/update", s.handleUpdate)
	mux.HandleFunc("/api/activity/post", s.handleActivity)
	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.server = server
	s.status = StatusReady
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Info("dashboard: serve error: %v", err)
		}
	}()
	s.logger.Info("dashboard: stub listening on %s", listener.Addr().String())
	return nil
}

// Shutdown stops accepting new connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.server == nil {
		return nil
	}
	s.status = StatusDraining
	deadline := ctx
	if deadline == nil {
		var cancel context.CancelFunc
		deadline, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := s.server.Shutdown(deadline); err != nil {
		return err
	}
	s.listener = nil
	s.server = nil
	return nil
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL for the running stub.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return s.settings.URL()
	}
	return "http://" + addr
}

// Status reports the server's lifecycle state.
func (s *Server) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Agents returns a snapshot of every registered agent.
func (s *Server) Agents() []AgentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AgentRecord, 0, len(s.agents))
	for _, record := range s.agents {
		out = append(out, record)
	}
	return out
}

// Activity returns a snapshot of the activity feed in post order.
func (s *Server) Activity() []ActivityEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ActivityEntry(nil), s.activity...)
}

func (s *Server) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return int64(s.now().Sub(s.startTime).Seconds())
}

type statusResponse struct {
	Status        string `json:"status"`
	Agents        int    `json:"agents"`
	Activity      int    `json:"activity"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleIterationStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", fmt.Sprintf("%s, %s", http.MethodGet, http.MethodHead))
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	s.mu.RLock()
	resp := statusResponse{
		Status:   string(s.status),
		Agents:   len(s.agents),
		Activity: len(s.activity),
	}
	s.mu.RUnlock()
	resp.UptimeSeconds = s.uptimeSeconds()
	writeJSON(w, http.StatusOK, resp)
}

type dashboardResponse struct {
	Agents   []AgentRecord   `json:"agents"`
	Activity []ActivityEntry `json:"activity"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", fmt.Sprintf("%s, %s", http.MethodGet, http.MethodHead))
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{Agents: s.Agents(), Activity: s.Activity()})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}
	s.mu.Lock()
	s.agents[req.ID] = AgentRecord{
		ID:        req.ID,
		Name:      req.Name,
		Role:      req.Role,
		Status:    "idle",
		UpdatedAt: s.now(),
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	if req.AgentID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "agentId is required"})
		return
	}
	s.mu.Lock()
	record := s.agents[req.AgentID]
	record.ID = req.AgentID
	if record.Name == "" {
		record.Name = req.AgentID
	}
	record.Status = req.Status
	record.Activity = req.Activity
	record.UpdatedAt = s.now()
	s.agents[req.AgentID] = record
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}
	s.mu.Lock()
	s.activity = append(s.activity, ActivityEntry{
		Agent:    req.Agent,
		Message:  req.Message,
		PostedAt: s.now(),
	})
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "posted"})
}

// decodePost reads and decodes a JSON POST body, writing the error
// response itself when the request is unusable.
func (s *Server) decodePost(w http.ResponseWriter, r *http.Request, into any) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return false
	}
	if r.Body == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty body"})
		return false
	}
	reader := http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "payload exceeds limit"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unable to read body"})
		return false
	}
	if err := json.Unmarshal(body, into); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
