package llmtool

import (
	"context"
	"encoding/json"

	"browser-dispatch/internal/application/port/input"
	"browser-dispatch/internal/domain/entity"

	"github.com/tmc/langchaingo/tools"
)

var _ tools.Tool = (*LangchainTool)(nil)

// LangchainTool adapts one registered tool to the langchaingo tools.Tool interface.
// The agent passes arguments as a JSON object string.
type LangchainTool struct {
	def        entity.ToolDefinition
	dispatcher input.ToolDispatcher
}

func LangchainTools(d input.ToolDispatcher) []tools.Tool {
	defs := d.Definitions()
	result := make([]tools.Tool, 0, len(defs))
	for _, def := range defs {
		result = append(result, &LangchainTool{def: def, dispatcher: d})
	}
	return result
}

func (t *LangchainTool) Name() string {
	return t.def.Name.String()
}

// Description includes the JSON schema, since langchaingo agents only see free text.
func (t *LangchainTool) Description() string {
	schema, err := json.Marshal(t.def.Parameters)
	if err != nil {
		return t.def.Description
	}
	return t.def.Description + " Input: a JSON object matching " + string(schema)
}

func (t *LangchainTool) Call(ctx context.Context, in string) (string, error) {
	args, err := parseArgs(in)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	items, err := t.dispatcher.Dispatch(ctx, t.def.Name, args)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	return Observation(items), nil
}
