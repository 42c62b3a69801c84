// Package llmtool exposes registered tools to LLM clients: OpenAI function calling and langchaingo agents.
package llmtool

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"browser-dispatch/internal/application/port/input"
	"browser-dispatch/internal/domain/entity"

	"github.com/sashabaranov/go-openai"
)

const maxObservationLen = 20000

// OpenAITools converts tool definitions into function declarations for a chat completion request.
func OpenAITools(defs []entity.ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, 0, len(defs))
	for _, d := range defs {
		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name.String(),
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return result
}

// HandleToolCall dispatches one tool call from the model. Failures are reported back to the model as
// the tool message content, never as a Go error, so the conversation can continue.
func HandleToolCall(ctx context.Context, d input.ToolDispatcher, tc openai.ToolCall) (openai.ChatCompletionMessage, []entity.ResponseItem) {
	msg := openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		ToolCallID: tc.ID,
		Name:       tc.Function.Name,
	}

	args, err := parseArgs(tc.Function.Arguments)
	if err != nil {
		msg.Content = "Error: " + err.Error()
		return msg, nil
	}

	items, err := d.Dispatch(ctx, entity.ToolName(tc.Function.Name), args)
	if err != nil {
		msg.Content = "Error: " + err.Error()
		return msg, nil
	}
	msg.Content = Observation(items)
	return msg, items
}

// HandleToolCalls answers every tool call of one assistant turn in order. Images produced by the
// calls follow the tool messages as one user message, since tool messages cannot carry images.
func HandleToolCalls(ctx context.Context, d input.ToolDispatcher, calls []openai.ToolCall) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(calls)+1)
	var produced []entity.ResponseItem
	for _, tc := range calls {
		msg, items := HandleToolCall(ctx, d, tc)
		msgs = append(msgs, msg)
		produced = append(produced, items...)
	}
	if img, ok := ImageMessage(produced); ok {
		msgs = append(msgs, img)
	}
	return msgs
}

// ParseToolCalls accepts either a JSON array of tool calls or an assistant message carrying tool_calls.
func ParseToolCalls(data []byte) ([]openai.ToolCall, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("no tool calls given")
	}

	var calls []openai.ToolCall
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &calls); err != nil {
			return nil, fmt.Errorf("decode tool calls: %w", err)
		}
	} else {
		var msg openai.ChatCompletionMessage
		if err := json.Unmarshal(trimmed, &msg); err != nil {
			return nil, fmt.Errorf("decode assistant message: %w", err)
		}
		calls = msg.ToolCalls
	}
	if len(calls) == 0 {
		return nil, errors.New("no tool calls given")
	}
	return calls, nil
}

// ImageMessage builds a user message carrying the binary items as inline images, for vision models.
// It returns false when there are no images.
func ImageMessage(items []entity.ResponseItem) (openai.ChatCompletionMessage, bool) {
	var parts []openai.ChatMessagePart
	for _, item := range items {
		if item.Kind != entity.ItemBinary || !strings.HasPrefix(item.MediaType, "image/") {
			continue
		}
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:" + item.MediaType + ";base64," + base64.StdEncoding.EncodeToString(item.Data),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	if len(parts) == 0 {
		return openai.ChatCompletionMessage{}, false
	}
	return openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: parts,
	}, true
}

// Observation renders response items as plain text. Binary items become a short placeholder.
func Observation(items []entity.ResponseItem) string {
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		if item.Kind == entity.ItemBinary {
			fmt.Fprintf(&sb, "[%s, %d bytes]", item.MediaType, len(item.Data))
			continue
		}
		sb.WriteString(item.Text)
	}

	obs := sb.String()
	if len(obs) > maxObservationLen {
		obs = obs[:maxObservationLen] + "\n... (truncated)"
	}
	return obs
}

func parseArgs(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
