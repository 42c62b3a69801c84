package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"browser-dispatch/internal/adapter/tool"
	"browser-dispatch/internal/application/port/output"
	"browser-dispatch/internal/application/service"
	"browser-dispatch/internal/di"
	"browser-dispatch/internal/domain/entity"
	"browser-dispatch/internal/infrastructure/browser/memory"
	"browser-dispatch/internal/infrastructure/logger"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *di.Container) {
	t.Helper()
	cfg := di.DefaultConfig()
	cfg.Backend = di.BackendMemory
	cfg.LogLevel = "error"
	c, err := di.NewContainer(cfg)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	s, err := NewServer(c.Dispatcher, c.Session, c.Logger)
	require.NoError(t, err)
	return s, c
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func TestServer_ToolsMirrorRegistry(t *testing.T) {
	s, c := newTestServer(t)

	tools := s.Tools()
	require.Len(t, tools, c.Registry.Len()+1)
	assert.Equal(t, "page_navigate", tools[0].Name)
	assert.Equal(t, ResetToolName, tools[len(tools)-1].Name)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(tools[0].RawInputSchema, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"url"}, schema["required"])
	assert.Equal(t, false, schema["additionalProperties"])
}

func TestServer_CallText(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handler(entity.ToolPageNavigate)(context.Background(),
		callRequest("page_navigate", map[string]any{"url": "https://www.example.com"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	require.Len(t, res.Content, 1)

	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "Navigated to https://www.example.com")
}

func TestServer_CallImage(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handler(entity.ToolPageScreenshot)(context.Background(), callRequest("page_screenshot", nil))
	require.NoError(t, err)
	require.Len(t, res.Content, 1)

	img, ok := res.Content[0].(mcp.ImageContent)
	require.True(t, ok)
	assert.Equal(t, "image/png", img.MIMEType)

	data, err := base64.StdEncoding.DecodeString(img.Data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestServer_ErrorsBecomeToolErrors(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handler(entity.ToolElementClick)(context.Background(), callRequest("element_click", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	require.Len(t, res.Content, 1)
	text := res.Content[0].(mcp.TextContent).Text
	assert.Equal(t, "Invalid arguments: selector: required", text)

	res, err = s.handler(entity.ToolElementFind)(context.Background(),
		callRequest("element_find", map[string]any{"selector": "#nope", "timeout": 0}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestServer_ContextClosed(t *testing.T) {
	s, c := newTestServer(t)
	require.NoError(t, c.Session.Cleanup())

	res, err := s.handler(entity.ToolPageTitle)(context.Background(), callRequest("page_title", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "Browser unavailable")
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestServer_ResetRecoversLostSession(t *testing.T) {
	var browsers []*memory.Browser
	factory := func(ctx context.Context) (output.BrowserPort, error) {
		b := memory.New(memory.DefaultOptions())
		browsers = append(browsers, b)
		return b, nil
	}
	log := logger.NewNop()
	session := service.NewSession(factory, log)
	t.Cleanup(func() { _ = session.Cleanup() })

	registry := service.NewToolRegistry()
	require.NoError(t, tool.RegisterAll(registry))
	s, err := NewServer(service.NewDispatcher(registry, session, log, 10*time.Second), session, log)
	require.NoError(t, err)

	ctx := context.Background()
	navigate := callRequest("page_navigate", map[string]any{"url": "https://www.example.com"})

	res, err := s.handler(entity.ToolPageNavigate)(ctx, navigate)
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	require.Len(t, browsers, 1)

	browsers[0].Disconnect()

	res, err = s.handler(entity.ToolPageTitle)(ctx, callRequest("page_title", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Call session_reset")

	res, err = s.handler(entity.ToolPageTitle)(ctx, callRequest("page_title", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Browser unavailable")

	res, err = s.resetSession(ctx, callRequest(ResetToolName, nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "Browser session restarted", resultText(t, res))
	require.Len(t, browsers, 2)
	assert.True(t, session.IsOpen())

	res, err = s.handler(entity.ToolPageNavigate)(ctx, navigate)
	require.NoError(t, err)
	assert.False(t, res.IsError, resultText(t, res))
	assert.Equal(t, "https://www.example.com", browsers[1].URL())
}

func TestServer_ResetAfterCleanup(t *testing.T) {
	s, c := newTestServer(t)
	require.NoError(t, c.Session.Cleanup())

	res, err := s.resetSession(context.Background(), callRequest(ResetToolName, nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = s.handler(entity.ToolPageTitle)(context.Background(), callRequest("page_title", nil))
	require.NoError(t, err)
	assert.False(t, res.IsError, resultText(t, res))
}
