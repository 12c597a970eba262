package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/coach"
	"github.com/aretw0/coach/internal/logging"
	"github.com/aretw0/coach/internal/presentation/graph"
	"github.com/aretw0/coach/internal/validator"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/runner"
	"github.com/aretw0/coach/pkg/session"
	"github.com/aretw0/coach/pkg/table"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes hosted sessions over JSON and SSE.
type Server struct {
	Sessions *session.Manager
	Table    *table.Table
	Streams  *StreamManager

	logger       *slog.Logger
	metrics      http.Handler
	maxInputSize int
	tableName    string
	spec         *openapi3.T
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMaxInputSize limits the size of option labels sent to /select.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInputSize = n
	}
}

// WithTableName is reported by GET /info.
func WithTableName(name string) Option {
	return func(s *Server) {
		s.tableName = name
	}
}

// NewServer wires a server to the session manager. Session changes made
// through the manager are broadcast to SSE subscribers.
func NewServer(sessions *session.Manager, t *table.Table, opts ...Option) (*Server, error) {
	s := &Server{
		Sessions:     sessions,
		Table:        t,
		maxInputSize: runner.DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.Streams = NewStreamManager(s.logger)

	spec, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}
	s.spec = spec

	sessions.OnChange(func(ctx context.Context, diff *domain.SessionDiff) {
		data, err := json.Marshal(diff)
		if err != nil {
			s.logger.Error("failed to encode session diff", "session_id", diff.SessionID, "err", err)
			return
		}
		s.Streams.Broadcast(diff.SessionID, string(data))
	})
	return s, nil
}

// NewHandler creates the HTTP handler for the session manager.
func NewHandler(sessions *session.Manager, t *table.Table, opts ...Option) (http.Handler, error) {
	s, err := NewServer(sessions, t, opts...)
	if err != nil {
		return nil, err
	}
	return s.Routes(), nil
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(RawSpec())
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.OpenSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.CloseSession)
			r.Post("/select", s.SelectOption)
			r.Get("/events", s.SubscribeEvents)
			r.Get("/graph", s.GetSessionGraph)
		})
	})

	r.Route("/table", func(r chi.Router) {
		r.Get("/", s.GetTable)
		r.Get("/lint", s.LintTable)
		r.Get("/graph", s.GetTableGraph)
	})

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionResponse is a session plus the options currently on display.
type SessionResponse struct {
	*domain.Session
	Options []domain.Option `json:"options"`
}

func newSessionResponse(s *domain.Session) SessionResponse {
	return SessionResponse{Session: s, Options: s.CurrentOptions()}
}

// OpenRequest is the optional body of POST /sessions.
type OpenRequest struct {
	ID string `json:"id"`
}

// OpenSession handles POST /sessions.
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	var body OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	opened, err := s.Sessions.Open(r.Context(), body.ID)
	if err != nil {
		s.fail(w, "open", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newSessionResponse(opened))
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, "list", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	current, err := s.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "get", err)
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionResponse(current))
}

// SelectOption handles POST /sessions/{id}/select.
func (s *Server) SelectOption(w http.ResponseWriter, r *http.Request) {
	var ref domain.OptionRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if ref.IsZero() {
		s.writeError(w, http.StatusBadRequest, errors.New("one of index, text or next_state is required"))
		return
	}
	if ref.Text != "" {
		clean, err := runner.SanitizeInput(ref.Text, s.maxInputSize)
		if err != nil {
			s.logger.Warn("select input rejected", "err", err, "size", len(ref.Text))
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid input: %w", err))
			return
		}
		ref.Text = clean
	}

	next, err := s.Sessions.Select(r.Context(), chi.URLParam(r, "id"), ref)
	if err != nil {
		s.fail(w, "select", err)
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionResponse(next))
}

// CloseSession handles DELETE /sessions/{id}.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	closed, err := s.Sessions.Close(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "close", err)
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionResponse(closed))
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
// Each event carries a domain.SessionDiff.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if _, err := s.Sessions.Get(r.Context(), sessionID); err != nil {
		s.fail(w, "subscribe", err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Debug("SSE client subscribed", "session_id", sessionID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: diff\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// GetSessionGraph handles GET /sessions/{id}/graph.
func (s *Server) GetSessionGraph(w http.ResponseWriter, r *http.Request) {
	current, err := s.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "graph", err)
		return
	}
	overlay := graph.OverlayFromSession(s.Table.Nodes(), s.Table.GreetingID(), current)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateTableMermaid(s.Table, overlay))
}

// TableResponse is the body of GET /table.
type TableResponse struct {
	Greeting string        `json:"greeting"`
	Fallback string        `json:"fallback"`
	Nodes    []domain.Node `json:"nodes"`
}

// GetTable handles GET /table.
func (s *Server) GetTable(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, TableResponse{
		Greeting: s.Table.GreetingID(),
		Fallback: s.Table.FallbackID(),
		Nodes:    s.Table.Nodes(),
	})
}

// LintTable handles GET /table/lint.
func (s *Server) LintTable(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, validator.ValidateTable(s.Table))
}

// GetTableGraph handles GET /table/graph.
func (s *Server) GetTableGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateTableMermaid(s.Table, nil))
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.spec != nil && s.spec.Info != nil {
		apiVersion = s.spec.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "coach-http",
		"version":     coach.Version,
		"api_version": apiVersion,
		"table":       s.tableName,
	})
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownOption),
		errors.Is(err, runner.ErrInputTooLarge),
		errors.Is(err, runner.ErrInvalidUTF8):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "op", op, "err", err)
	} else {
		s.logger.Debug("request rejected", "op", op, "status", status, "err", err)
	}
	s.writeError(w, status, err)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
