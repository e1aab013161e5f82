package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"shelf/internal/events"
	"shelf/internal/journal"
	"shelf/internal/logging"
	"shelf/internal/rules"
	"shelf/internal/services"
)

const heartbeatInterval = 15 * time.Second

// Monitor controls the watch loop without restarting the process.
type Monitor interface {
	Active() bool
	Start()
	Stop()
}

// Renamer performs an on-demand AI rename of one file.
type Renamer interface {
	RenameNow(ctx context.Context, path string) (oldName, newName string, err error)
}

// HistorySource lists recent task outcomes.
type HistorySource interface {
	List(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Deps bundles the server's collaborators.
type Deps struct {
	Bind        string
	Logger      *slog.Logger
	Rules       *rules.Store
	Monitor     Monitor
	Renamer     Renamer
	History     HistorySource
	Broadcaster *events.Broadcaster
}

// Server is the daemon's HTTP control surface.
type Server struct {
	bind      string
	logger    *slog.Logger
	rules     *rules.Store
	monitor   Monitor
	renamer   Renamer
	history   HistorySource
	broadcast *events.Broadcaster

	listener net.Listener
	server   *http.Server
}

// New constructs the server. It does not listen until Start.
func New(deps Deps) *Server {
	srv := &Server{
		bind:      strings.TrimSpace(deps.Bind),
		logger:    logging.NewComponentLogger(deps.Logger, "api"),
		rules:     deps.Rules,
		monitor:   deps.Monitor,
		renamer:   deps.Renamer,
		history:   deps.History,
		broadcast: deps.Broadcaster,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/config", srv.handleConfig)
	mux.HandleFunc("/api/start-monitor", srv.handleStartMonitor)
	mux.HandleFunc("/api/stop-monitor", srv.handleStopMonitor)
	mux.HandleFunc("/api/rename", srv.handleRename)
	mux.HandleFunc("/api/history", srv.handleHistory)
	mux.HandleFunc("/api/events", srv.handleEvents)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Handler returns the route table, used directly in tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving and shuts down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound listen address, or empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, allowing in-flight requests to finish
// briefly.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	doc := s.rules.Snapshot()
	active := s.monitor.Active()
	status := "stopped"
	if active {
		status = "running"
	}
	s.writeJSON(w, http.StatusOK, StatusResponse{
		Status:          status,
		Monitoring:      active,
		Watchlist:       doc.Watchlist,
		RenameByAI:      doc.Settings.RenameByAI,
		RemoveDuplicate: doc.Settings.RemoveDuplicate,
		PID:             os.Getpid(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, s.rules.Snapshot())
	case http.MethodPut:
		s.handleConfigUpdate(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleConfigUpdate merges the request body over the active document:
// absent sections keep their current values, so clients can send just
// the section they changed, while supplied tables and lists replace
// their counterparts wholesale. Validation failures reject the whole
// update.
func (s *Server) handleConfigUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	merged, err := s.rules.Snapshot().Merge(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if err := s.rules.Replace(merged); err != nil {
		var validation *rules.ValidationError
		if errors.As(err, &validation) {
			fields := make([]FieldErrorPayload, 0, len(validation.Fields))
			for _, field := range validation.Fields {
				fields = append(fields, FieldErrorPayload{Field: field.Field, Reason: field.Reason})
			}
			s.writeJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
				Error:  "configuration rejected",
				Fields: fields,
			})
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.rules.Snapshot())
}

func (s *Server) handleStartMonitor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.monitor.Start()
	s.writeJSON(w, http.StatusOK, MonitorResponse{
		Success:    true,
		Message:    "Monitor started",
		Monitoring: s.monitor.Active(),
	})
}

func (s *Server) handleStopMonitor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.monitor.Stop()
	s.writeJSON(w, http.StatusOK, MonitorResponse{
		Success:    true,
		Message:    "Monitor stopped",
		Monitoring: s.monitor.Active(),
	})
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		s.writeError(w, http.StatusBadRequest, "path required")
		return
	}

	oldName, newName, err := s.renamer.RenameNow(r.Context(), req.Path)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrFilesystem) {
			status = http.StatusNotFound
		}
		s.writeJSON(w, status, RenameResponse{
			Success: false,
			OldName: oldName,
			Error:   err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, RenameResponse{
		Success: true,
		OldName: oldName,
		NewName: newName,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	payload := HistoryResponse{Entries: make([]HistoryEntry, 0, len(entries))}
	for _, entry := range entries {
		payload.Entries = append(payload.Entries, HistoryEntry{
			TaskID:          entry.TaskID,
			SourcePath:      entry.SourcePath,
			DestinationPath: entry.DestinationPath,
			FinalName:       entry.FinalName,
			Stage:           string(entry.Stage),
			FailureReason:   entry.FailureReason,
			DetectedAt:      entry.DetectedAt,
			CompletedAt:     entry.CompletedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, payload)
}

// handleEvents streams notifications as server-sent events. Recent
// history is replayed on connect; a comment heartbeat keeps
// intermediaries from closing the stream.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, cancel := s.broadcast.Subscribe()
	defer cancel()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error("encode event failed", logging.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
