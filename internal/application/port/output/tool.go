package output

import (
	"context"

	"browser-dispatch/internal/domain/entity"
)

type ResponseSink interface {
	AddText(text string) error
	AddBinary(data []byte, mediaType string) error
}

type ExecuteFunc func(ctx context.Context, browser BrowserPort, args entity.Arguments, resp ResponseSink) error

// ToolDescriptor pairs a tool's metadata with its execution procedure.
// Registries store copies; a descriptor is never mutated after registration.
type ToolDescriptor struct {
	Name        entity.ToolName
	Category    entity.Category
	Description string
	Schema      entity.Schema
	Execute     ExecuteFunc
}

func (d ToolDescriptor) Definition() entity.ToolDefinition {
	return entity.ToolDefinition{
		Name:        d.Name,
		Category:    d.Category,
		Description: d.Description,
		Parameters:  d.Schema.JSONSchema(),
	}
}
