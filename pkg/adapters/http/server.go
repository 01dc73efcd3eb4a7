package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/keyseq"
	"github.com/aretw0/keyseq/internal/logging"
	"github.com/aretw0/keyseq/internal/presentation/graph"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/input"
	"github.com/aretw0/keyseq/pkg/registry"
	"github.com/aretw0/keyseq/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the sequence catalog and remote sessions over HTTP.
type Server struct {
	Registry *registry.Registry
	Sessions *session.Manager

	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics serves the given gatherer on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// CreateSessionRequest is the body of POST /sessions. Either Sequence (a
// catalog name) or Keys must be set.
type CreateSessionRequest struct {
	ID              string   `json:"id,omitempty"`
	Sequence        string   `json:"sequence,omitempty"`
	Keys            []string `json:"keys,omitempty"`
	TimeoutMS       *int64   `json:"timeout_ms,omitempty"`
	ResetOnMismatch *bool    `json:"reset_on_mismatch,omitempty"`
	Once            bool     `json:"once,omitempty"`
}

// PressRequest is the body of POST /sessions/{id}/keys. Keys are names
// resolved like "up", "b" or "KeyB"; Events are raw key events.
type PressRequest struct {
	Keys   []string          `json:"keys,omitempty"`
	Events []domain.KeyEvent `json:"events,omitempty"`
}

// SequenceRequest is the body of PUT /sequences/{name}.
type SequenceRequest struct {
	Description string          `json:"description,omitempty"`
	Keys        domain.Sequence `json:"keys"`
}

// NewHandler creates the HTTP handler.
func NewHandler(reg *registry.Registry, sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Registry: reg,
		Sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sequences", func(r chi.Router) {
		r.Get("/", s.ListSequences)
		r.Get("/{name}", s.GetSequence)
		r.Put("/{name}", s.PutSequence)
		r.Delete("/{name}", s.DeleteSequence)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/keys", s.PressKeys)
			r.Post("/reset", s.control(s.Sessions.Reset))
			r.Post("/start", s.control(s.Sessions.Start))
			r.Post("/stop", s.control(s.Sessions.Stop))
			r.Get("/events", s.SubscribeEvents)
			r.Get("/graph", s.GetSessionGraph)
		})
	})

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "keyseq-http",
		"version": strings.TrimSpace(keyseq.Version),
	})
}

// ListSequences handles GET /sequences.
func (s *Server) ListSequences(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Registry.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// GetSequence handles GET /sequences/{name}.
func (s *Server) GetSequence(w http.ResponseWriter, r *http.Request) {
	def, err := s.Registry.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, def)
}

// PutSequence handles PUT /sequences/{name}.
func (s *Server) PutSequence(w http.ResponseWriter, r *http.Request) {
	var body SequenceRequest
	if !s.decode(w, r, &body) {
		return
	}
	def := domain.Definition{
		Name:        chi.URLParam(r, "name"),
		Description: body.Description,
		Keys:        body.Keys,
	}
	if err := s.Registry.Save(r.Context(), def); err != nil {
		s.writeError(w, err)
		return
	}
	saved, err := s.Registry.Get(r.Context(), def.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

// DeleteSequence handles DELETE /sequences/{name}.
func (s *Server) DeleteSequence(w http.ResponseWriter, r *http.Request) {
	if err := s.Registry.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Sessions.List())
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionRequest
	if !s.decode(w, r, &body) {
		return
	}

	var def domain.Definition
	switch {
	case body.Sequence != "" && len(body.Keys) > 0:
		s.writeError(w, fmt.Errorf("%w: set either sequence or keys", errBadRequest))
		return
	case body.Sequence != "":
		var err error
		if def, err = s.Registry.Get(r.Context(), body.Sequence); err != nil {
			s.writeError(w, err)
			return
		}
	default:
		def = domain.Definition{Name: "custom", Keys: body.Keys}
	}

	var opts []keyseq.Option
	if body.TimeoutMS != nil {
		opts = append(opts, keyseq.WithTimeout(time.Duration(*body.TimeoutMS)*time.Millisecond))
	}
	if body.ResetOnMismatch != nil {
		opts = append(opts, keyseq.WithResetOnMismatch(*body.ResetOnMismatch))
	}
	if body.Once {
		opts = append(opts, keyseq.WithOnce(true))
	}

	info, err := s.Sessions.Create(body.ID, def, opts...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+info.ID)
	s.writeJSON(w, http.StatusCreated, info)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.Sessions.Snapshot(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

// GetSessionGraph handles GET /sessions/{id}/graph.
// It renders the session sequence as Mermaid with the current position
// highlighted.
func (s *Server) GetSessionGraph(w http.ResponseWriter, r *http.Request) {
	info, err := s.Sessions.Snapshot(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	def := domain.Definition{Name: info.Name, Keys: info.Sequence}
	out := graph.GenerateMermaid(def, graph.Options{Timeout: info.Timeout}, &graph.Overlay{Position: info.Position})

	w.Header().Set("Content-Type", "text/vnd.mermaid; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PressKeys handles POST /sessions/{id}/keys.
func (s *Server) PressKeys(w http.ResponseWriter, r *http.Request) {
	var body PressRequest
	if !s.decode(w, r, &body) {
		return
	}
	events := make([]domain.KeyEvent, 0, len(body.Keys)+len(body.Events))
	for _, name := range body.Keys {
		ev, ok := input.KeyEventForName(name)
		if !ok {
			s.writeError(w, fmt.Errorf("%w: unknown key %q", errBadRequest, name))
			return
		}
		events = append(events, ev)
	}
	events = append(events, body.Events...)

	info, err := s.Sessions.Press(chi.URLParam(r, "id"), events...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) control(op func(id string) (session.Info, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := op(chi.URLParam(r, "id"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, info)
	}
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	events, cancel, err := s.Sessions.Subscribe(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to session events", "session_id", id)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", id)
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				s.logger.Error("SSE: Failed to encode event", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
			flusher.Flush()
		}
	}
}

// -- Helpers --

var errBadRequest = errors.New("bad request")

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSequenceNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionExists),
		errors.Is(err, registry.ErrBuiltin),
		errors.Is(err, registry.ErrReadOnly):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrEmptySequence),
		errors.Is(err, domain.ErrEmptySymbol),
		errors.Is(err, domain.ErrInvalidName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "err", err)
	} else {
		s.logger.Debug("Request rejected", "status", status, "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid request body: %v", errBadRequest, err))
		return false
	}
	return true
}
