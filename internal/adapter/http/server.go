// Package http serves the tool dispatcher as a small JSON API.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"browser-dispatch/internal/application/port/input"
	"browser-dispatch/internal/application/port/output"
	"browser-dispatch/internal/domain/entity"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"
)

const maxBodyBytes = 1 << 20

type Options struct {
	// RequestLogLevel is the httplog access log level. Defaults to info.
	RequestLogLevel string
	// JSONLogs switches the access log from console to JSON lines.
	JSONLogs bool
}

type Server struct {
	dispatcher input.ToolDispatcher
	session    input.SessionControl
	logger     output.LoggerPort
}

func NewHandler(dispatcher input.ToolDispatcher, session input.SessionControl, logger output.LoggerPort, opts Options) http.Handler {
	s := &Server{
		dispatcher: dispatcher,
		session:    session,
		logger:     logger.WithField("component", "http"),
	}

	level := opts.RequestLogLevel
	if level == "" {
		level = "info"
	}
	accessLog := httplog.NewLogger("browser-dispatch", httplog.Options{
		LogLevel: level,
		JSON:     opts.JSONLogs,
		Concise:  true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(accessLog))

	r.Get("/tools", s.ListTools)
	r.Post("/tools/{name}", s.CallTool)
	r.Get("/session", s.SessionStatus)
	r.Post("/session/open", s.OpenSession)
	r.Post("/session/cleanup", s.CleanupSession)

	return r
}

type itemResponse struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	Data      []byte `json:"data,omitempty"`
}

type callResponse struct {
	Items []itemResponse `json:"items"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

type sessionResponse struct {
	Open bool `json:"open"`
}

func (s *Server) ListTools(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.dispatcher.Definitions())
}

// CallTool dispatches POST /tools/{name}. The body is the JSON argument object; ?timeout= accepts a Go duration.
func (s *Server) CallTool(w http.ResponseWriter, r *http.Request) {
	name := entity.ToolName(chi.URLParam(r, "name"))

	var opts []input.DispatchOption
	if raw := r.URL.Query().Get("timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{
				Error: fmt.Sprintf("invalid timeout %q", raw),
				Kind:  "bad_request",
			})
			return
		}
		opts = append(opts, input.WithTimeout(d))
	}

	args, err := decodeArgs(r.Body)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "bad_request"})
		return
	}

	items, err := s.dispatcher.Dispatch(r.Context(), name, args, opts...)
	if err != nil {
		status, body := errorStatus(err)
		s.writeJSON(w, status, body)
		return
	}

	resp := callResponse{Items: make([]itemResponse, 0, len(items))}
	for _, item := range items {
		if item.Kind == entity.ItemBinary {
			resp.Items = append(resp.Items, itemResponse{Type: "binary", MediaType: item.MediaType, Data: item.Data})
			continue
		}
		resp.Items = append(resp.Items, itemResponse{Type: "text", Text: item.Text})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) SessionStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, sessionResponse{Open: s.session.IsOpen()})
}

func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Open(r.Context()); err != nil {
		s.logger.Error("Open session failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Kind: "execution"})
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{Open: true})
}

func (s *Server) CleanupSession(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Cleanup(); err != nil {
		s.logger.Warn("Session cleanup failed", "error", err)
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{Open: s.session.IsOpen()})
}

// decodeArgs accepts an empty body as no arguments. Numbers are kept as json.Number for the validator.
func decodeArgs(body io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	dec.UseNumber()

	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("request body must be a JSON object: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func errorStatus(err error) (int, errorResponse) {
	body := errorResponse{Error: err.Error()}
	var verr *entity.ValidationError

	switch {
	case errors.Is(err, entity.ErrNotFound):
		body.Kind = "not_found"
		return http.StatusNotFound, body
	case errors.As(err, &verr):
		body.Kind = "validation"
		body.Field = verr.Field
		return http.StatusBadRequest, body
	case errors.Is(err, entity.ErrContextClosed):
		body.Kind = "context_closed"
		return http.StatusConflict, body
	case errors.Is(err, entity.ErrSessionLost):
		body.Kind = "session_lost"
		return http.StatusBadGateway, body
	case errors.Is(err, entity.ErrTimeout):
		body.Kind = "timeout"
		return http.StatusGatewayTimeout, body
	default:
		body.Kind = "execution"
		return http.StatusInternalServerError, body
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "error", err)
	}
}
