package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/coach"
	"github.com/aretw0/coach/internal/logging"
	"github.com/aretw0/coach/internal/presentation/graph"
	"github.com/aretw0/coach/internal/validator"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/runner"
	"github.com/aretw0/coach/pkg/session"
	"github.com/aretw0/coach/pkg/table"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Resource URIs exposed by the server.
const (
	TableURI = "coach://table"
	GraphURI = "coach://table/graph"
)

// SessionResult is the structured output of the session tools.
type SessionResult struct {
	SessionID    string          `json:"session_id" jsonschema_description:"ID to pass to select_option and close_session"`
	CurrentState string          `json:"current_state" jsonschema_description:"ID of the node on display"`
	Status       string          `json:"status" jsonschema_description:"open or closed"`
	Message      string          `json:"message,omitempty" jsonschema_description:"Latest bot message"`
	Options      []domain.Option `json:"options" jsonschema_description:"Options the user can choose from, numbered from 1"`
	Turns        int             `json:"turns" jsonschema_description:"Number of transcript entries"`
	Fallback     bool            `json:"fallback,omitempty" jsonschema_description:"True when the chosen topic had no answer"`
}

// OpenArgs are the arguments of open_session.
type OpenArgs struct {
	SessionID string `json:"session_id,omitempty"`
}

// SelectArgs are the arguments of select_option.
type SelectArgs struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index,omitempty"`
	Text      string `json:"text,omitempty"`
	NextState string `json:"next_state,omitempty"`
}

// SessionArgs identify a held session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// Server exposes hosted sessions as MCP tools and the response table as resources.
type Server struct {
	sessions     *session.Manager
	table        *table.Table
	mcpServer    *server.MCPServer
	logger       *slog.Logger
	maxInputSize int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMaxInputSize limits the size of option labels passed to select_option.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInputSize = n
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, t *table.Table, opts ...Option) *Server {
	s := &Server{
		sessions:     sessions,
		table:        t,
		mcpServer:    server.NewMCPServer("coach-mcp", coach.Version),
		maxInputSize: runner.DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
// baseURL is the externally visible address announced to clients.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("open_session",
		mcp.WithDescription("Open a conversation with the productivity assistant. Returns the greeting and its numbered options. Re-opening an existing session restarts it."),
		mcp.WithString("session_id", mcp.Description("Session ID to use (optional, generated when omitted)")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleOpen))

	s.mcpServer.AddTool(mcp.NewTool("select_option",
		mcp.WithDescription("Choose one of the options on display, by 1-based index, by its exact text, or by its target state."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by open_session")),
		mcp.WithNumber("index", mcp.Description("1-based position of the option")),
		mcp.WithString("text", mcp.Description("Option text")),
		mcp.WithString("next_state", mcp.Description("Target state of the option")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleSelect))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Show the latest message and options of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by open_session")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleGet))

	s.mcpServer.AddTool(mcp.NewTool("close_session",
		mcp.WithDescription("Close a session and discard its transcript."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by open_session")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleClose))

	s.mcpServer.AddTool(mcp.NewTool("get_table",
		mcp.WithDescription("Get every node of the response table for introspection."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.Marshal(s.table.Nodes())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("lint_table",
		mcp.WithDescription("Report dangling, unreachable and dead-end nodes of the response table."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.Marshal(validator.ValidateTable(s.table))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func (s *Server) handleOpen(ctx context.Context, request mcp.CallToolRequest, args OpenArgs) (SessionResult, error) {
	opened, err := s.sessions.Open(ctx, args.SessionID)
	if err != nil {
		return SessionResult{}, fmt.Errorf("open failed: %w", err)
	}
	return s.result(opened), nil
}

func (s *Server) handleSelect(ctx context.Context, request mcp.CallToolRequest, args SelectArgs) (SessionResult, error) {
	if args.SessionID == "" {
		return SessionResult{}, errors.New("session_id is required")
	}
	ref := domain.OptionRef{Index: args.Index, Text: args.Text, NextState: args.NextState}
	if ref.IsZero() {
		return SessionResult{}, errors.New("one of index, text or next_state is required")
	}

	if ref.Text != "" {
		clean, err := runner.SanitizeInput(ref.Text, s.maxInputSize)
		if err != nil {
			s.logger.Warn("MCP select input rejected", "err", err, "size", len(ref.Text))
			return SessionResult{}, fmt.Errorf("input rejected: %w", err)
		}
		ref.Text = clean
	}

	next, err := s.sessions.Select(ctx, args.SessionID, ref)
	if err != nil {
		return SessionResult{}, fmt.Errorf("select failed: %w", err)
	}
	return s.result(next), nil
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (SessionResult, error) {
	current, err := s.sessions.Get(ctx, args.SessionID)
	if err != nil {
		return SessionResult{}, fmt.Errorf("get failed: %w", err)
	}
	return s.result(current), nil
}

func (s *Server) handleClose(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (SessionResult, error) {
	closed, err := s.sessions.Close(ctx, args.SessionID)
	if err != nil {
		return SessionResult{}, fmt.Errorf("close failed: %w", err)
	}
	return s.result(closed), nil
}

func (s *Server) result(sess *domain.Session) SessionResult {
	res := SessionResult{
		SessionID:    sess.ID,
		CurrentState: sess.CurrentState,
		Status:       string(sess.Status),
		Options:      sess.CurrentOptions(),
		Turns:        len(sess.Transcript),
		Fallback:     sess.IsOpen() && sess.CurrentState == s.table.FallbackID(),
	}
	if last, ok := sess.LastBot(); ok {
		res.Message = last.Message
	}
	if res.Options == nil {
		res.Options = []domain.Option{}
	}
	return res
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(TableURI, "Response Table",
		mcp.WithResourceDescription("Every node of the response table"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.table.Nodes())
		if err != nil {
			return nil, fmt.Errorf("failed to encode table: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      TableURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Response Table Graph",
		mcp.WithResourceDescription("Mermaid flowchart of the response table"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateTableMermaid(s.table, nil),
			},
		}, nil
	})
}
