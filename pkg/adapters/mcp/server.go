package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/keyseq"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/input"
	"github.com/aretw0/keyseq/pkg/registry"
	"github.com/aretw0/keyseq/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SequencesResponse lists the catalog.
type SequencesResponse struct {
	Sequences []registry.Entry `json:"sequences" jsonschema_description:"Known sequences, built-in and stored"`
}

// SessionResponse wraps a session snapshot.
type SessionResponse struct {
	Session session.Info `json:"session" jsonschema_description:"The session after the call"`
	Next    string       `json:"next,omitempty" jsonschema_description:"The key expected next"`
}

type createArgs struct {
	ID        string   `json:"id,omitempty"`
	Sequence  string   `json:"sequence,omitempty"`
	Keys      []string `json:"keys,omitempty"`
	TimeoutMS int64    `json:"timeout_ms,omitempty"`
}

type pressArgs struct {
	SessionID string   `json:"session_id"`
	Key       string   `json:"key,omitempty"`
	Keys      []string `json:"keys,omitempty"`
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

// Server exposes sessions and the sequence catalog as MCP tools.
type Server struct {
	registry  *registry.Registry
	sessions  *session.Manager
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(reg *registry.Registry, sessions *session.Manager) *Server {
	s := &Server{
		registry:  reg,
		sessions:  sessions,
		mcpServer: server.NewMCPServer("keyseq-mcp", strings.TrimSpace(keyseq.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. to mount another transport.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
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
		slog.Info("MCP Server listening (SSE)", "address", addr)
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_sequences",
		mcp.WithDescription("List the key sequences that sessions can listen for."),
		mcp.WithOutputSchema[SequencesResponse](),
	), mcp.NewStructuredToolHandler(s.handleListSequences))

	s.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Start a session listening for a sequence. Pass a catalog name or explicit keys."),
		mcp.WithString("id", mcp.Description("Session ID (optional, generated when empty)")),
		mcp.WithString("sequence", mcp.Description("Catalog name, e.g. konami")),
		mcp.WithArray("keys", mcp.Description("Explicit key codes, e.g. [\"KeyH\", \"KeyI\"]"), mcp.WithStringItems()),
		mcp.WithNumber("timeout_ms", mcp.Description("Sliding window between correct keys in milliseconds (optional)")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleCreateSession))

	s.mcpServer.AddTool(mcp.NewTool("press_key",
		mcp.WithDescription("Press one or more keys in a session. Names like up, b, enter or KeyB are accepted."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Target session")),
		mcp.WithString("key", mcp.Description("A single key name")),
		mcp.WithArray("keys", mcp.Description("Several key names, pressed in order"), mcp.WithStringItems()),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handlePressKey))

	s.mcpServer.AddTool(mcp.NewTool("get_progress",
		mcp.WithDescription("Get the progress of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Target session")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetProgress))

	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Drop the progress of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Target session")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleResetSession))
}

func (s *Server) handleListSequences(ctx context.Context, request mcp.CallToolRequest, _ map[string]any) (SequencesResponse, error) {
	entries, err := s.registry.List(ctx)
	if err != nil {
		return SequencesResponse{}, fmt.Errorf("list failed: %w", err)
	}
	return SequencesResponse{Sequences: entries}, nil
}

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest, args createArgs) (SessionResponse, error) {
	var def domain.Definition
	switch {
	case args.Sequence != "":
		var err error
		if def, err = s.registry.Get(ctx, args.Sequence); err != nil {
			return SessionResponse{}, err
		}
	case len(args.Keys) > 0:
		def = domain.Definition{Name: "custom", Keys: args.Keys}
	default:
		return SessionResponse{}, fmt.Errorf("either sequence or keys is required")
	}

	var opts []keyseq.Option
	if args.TimeoutMS > 0 {
		opts = append(opts, keyseq.WithTimeout(time.Duration(args.TimeoutMS)*time.Millisecond))
	}
	info, err := s.sessions.Create(args.ID, def, opts...)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("create failed: %w", err)
	}
	return respond(info), nil
}

func (s *Server) handlePressKey(ctx context.Context, request mcp.CallToolRequest, args pressArgs) (SessionResponse, error) {
	names := args.Keys
	if args.Key != "" {
		names = append([]string{args.Key}, names...)
	}
	if len(names) == 0 {
		return SessionResponse{}, fmt.Errorf("key or keys is required")
	}
	events := make([]domain.KeyEvent, 0, len(names))
	for _, name := range names {
		ev, ok := input.KeyEventForName(name)
		if !ok {
			return SessionResponse{}, fmt.Errorf("unknown key %q", name)
		}
		events = append(events, ev)
	}
	info, err := s.sessions.Press(args.SessionID, events...)
	if err != nil {
		return SessionResponse{}, err
	}
	return respond(info), nil
}

func (s *Server) handleGetProgress(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (SessionResponse, error) {
	info, err := s.sessions.Snapshot(args.SessionID)
	if err != nil {
		return SessionResponse{}, err
	}
	return respond(info), nil
}

func (s *Server) handleResetSession(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (SessionResponse, error) {
	info, err := s.sessions.Reset(args.SessionID)
	if err != nil {
		return SessionResponse{}, err
	}
	return respond(info), nil
}

func respond(info session.Info) SessionResponse {
	return SessionResponse{Session: info, Next: info.Next()}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("keyseq://sequences", "Sequence catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		entries, err := s.registry.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sequences: %w", err)
		}
		jsonBytes, _ := json.Marshal(entries)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "keyseq://sequences",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
