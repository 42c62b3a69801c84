package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"browser-dispatch/internal/di"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryContainer(t *testing.T) *di.Container {
	t.Helper()
	cfg := di.DefaultConfig()
	cfg.Backend = di.BackendMemory
	cfg.LogLevel = "error"
	c, err := di.NewContainer(cfg)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestWriteTools_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTools(&buf, formatText, memoryContainer(t)))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "PAGE:\n"))
	assert.Contains(t, out, "ELEMENT:\n")
	assert.Contains(t, out, "WAIT:\n")
	assert.Contains(t, out, "page_elements")
}

func TestWriteTools_OpenAI(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTools(&buf, formatOpenAI, memoryContainer(t)))

	var tools []openai.Tool
	require.NoError(t, json.Unmarshal(buf.Bytes(), &tools))
	require.Len(t, tools, 17)
	assert.Equal(t, openai.ToolTypeFunction, tools[0].Type)
	assert.Equal(t, "page_navigate", tools[0].Function.Name)
}

func TestWriteTools_Langchain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTools(&buf, formatLangchain, memoryContainer(t)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 17)
	assert.True(t, strings.HasPrefix(lines[0], "page_navigate: "))
	assert.Contains(t, lines[0], "Input: a JSON object matching")
}

func TestWriteTools_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, writeTools(&buf, "yaml", memoryContainer(t)))
}
