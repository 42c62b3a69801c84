// Package mcp exposes the tool dispatcher as a Model Context Protocol server.
package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"browser-dispatch/internal/application/port/input"
	"browser-dispatch/internal/application/port/output"
	"browser-dispatch/internal/domain/entity"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "browser-dispatch"
	serverVersion = "0.1.0"

	// ResetToolName restarts the browser after it was lost or closed.
	ResetToolName = "session_reset"
)

type Server struct {
	dispatcher input.ToolDispatcher
	session    input.SessionControl
	logger     output.LoggerPort
	mcpServer  *server.MCPServer
	tools      []mcp.Tool
}

func NewServer(dispatcher input.ToolDispatcher, session input.SessionControl, logger output.LoggerPort) (*Server, error) {
	s := &Server{
		dispatcher: dispatcher,
		session:    session,
		logger:     logger.WithField("component", "mcp"),
		mcpServer:  server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false)),
	}
	if err := s.registerTools(); err != nil {
		return nil, err
	}
	return s, nil
}

// Tools lists the MCP tool declarations in registry order, followed by session_reset.
func (s *Server) Tools() []mcp.Tool {
	return s.tools
}

func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
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
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() error {
	for _, def := range s.dispatcher.Definitions() {
		if def.Name.String() == ResetToolName {
			return fmt.Errorf("tool name %s is reserved", ResetToolName)
		}
		schema, err := json.Marshal(def.Parameters)
		if err != nil {
			return fmt.Errorf("encode schema for %s: %w", def.Name, err)
		}
		tool := mcp.NewToolWithRawSchema(def.Name.String(), def.Description, schema)
		s.tools = append(s.tools, tool)
		s.mcpServer.AddTool(tool, s.handler(def.Name))
	}

	reset := mcp.NewTool(ResetToolName,
		mcp.WithDescription("Close the current browser, if any, and start a fresh one. Use it when tools report that the browser is unavailable."),
	)
	s.tools = append(s.tools, reset)
	s.mcpServer.AddTool(reset, s.resetSession)
	return nil
}

func (s *Server) resetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.session.Cleanup(); err != nil {
		s.logger.Warn("Cleanup before reset failed", "error", err)
	}
	if err := s.session.Open(ctx); err != nil {
		s.logger.Error("Session reset failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	s.logger.Info("Session reset")
	return mcp.NewToolResultText("Browser session restarted"), nil
}

// handler reports dispatch failures as tool errors so the model can read and react to them.
func (s *Server) handler(name entity.ToolName) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		items, err := s.dispatcher.Dispatch(ctx, name, request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(describeError(err)), nil
		}
		return toResult(items), nil
	}
}

func toResult(items []entity.ResponseItem) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(items))
	for _, item := range items {
		switch item.Kind {
		case entity.ItemBinary:
			content = append(content, mcp.NewImageContent(base64.StdEncoding.EncodeToString(item.Data), item.MediaType))
		default:
			content = append(content, mcp.NewTextContent(item.Text))
		}
	}
	return &mcp.CallToolResult{Content: content}
}

func describeError(err error) string {
	var verr *entity.ValidationError
	switch {
	case errors.As(err, &verr):
		return fmt.Sprintf("Invalid arguments: %s: %s", verr.Field, verr.Constraint)
	case errors.Is(err, entity.ErrTimeout):
		return fmt.Sprintf("Timed out: %v", err)
	case errors.Is(err, entity.ErrSessionLost), errors.Is(err, entity.ErrContextClosed):
		return fmt.Sprintf("Browser unavailable: %v. Call %s to start a new browser.", err, ResetToolName)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
