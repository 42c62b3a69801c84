package service

import (
	"fmt"
	"iter"
	"sync"

	"browser-dispatch/internal/application/port/output"
	"browser-dispatch/internal/domain/entity"
)

// ToolRegistry maps tool names to descriptors and preserves registration order.
type ToolRegistry struct {
	mu         sync.RWMutex
	tools      []output.ToolDescriptor
	validators []*Validator
	index      map[entity.ToolName]int
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		index: make(map[entity.ToolName]int),
	}
}

func (r *ToolRegistry) Register(desc output.ToolDescriptor) error {
	if desc.Name == "" {
		return fmt.Errorf("register tool: empty name")
	}
	if desc.Execute == nil {
		return fmt.Errorf("register tool %s: nil execute", desc.Name)
	}

	desc.Schema = desc.Schema.Clone()
	validator, err := NewValidator(desc.Schema)
	if err != nil {
		return fmt.Errorf("register tool %s: %w", desc.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[desc.Name]; ok {
		return &entity.DuplicateNameError{Name: desc.Name.String()}
	}

	r.index[desc.Name] = len(r.tools)
	r.tools = append(r.tools, desc)
	r.validators = append(r.validators, validator)
	return nil
}

// MustRegister registers every descriptor and panics on conflict. Used during startup wiring.
func (r *ToolRegistry) MustRegister(descs ...output.ToolDescriptor) {
	for _, d := range descs {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

func (r *ToolRegistry) Lookup(name entity.ToolName) (output.ToolDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[name]
	if !ok {
		return output.ToolDescriptor{}, &entity.NotFoundError{Name: name.String()}
	}
	return r.tools[i], nil
}

// resolve returns the descriptor together with its resolved argument validator.
func (r *ToolRegistry) resolve(name entity.ToolName) (output.ToolDescriptor, *Validator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[name]
	if !ok {
		return output.ToolDescriptor{}, nil, &entity.NotFoundError{Name: name.String()}
	}
	return r.tools[i], r.validators[i], nil
}

// All yields descriptors in registration order. Each range over the result starts from the first tool.
func (r *ToolRegistry) All() iter.Seq[output.ToolDescriptor] {
	return func(yield func(output.ToolDescriptor) bool) {
		for i := 0; ; i++ {
			r.mu.RLock()
			if i >= len(r.tools) {
				r.mu.RUnlock()
				return
			}
			desc := r.tools[i]
			r.mu.RUnlock()

			if !yield(desc) {
				return
			}
		}
	}
}

func (r *ToolRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

func (r *ToolRegistry) Names() []entity.ToolName {
	result := make([]entity.ToolName, 0, r.Len())
	for desc := range r.All() {
		result = append(result, desc.Name)
	}
	return result
}

func (r *ToolRegistry) Definitions() []entity.ToolDefinition {
	result := make([]entity.ToolDefinition, 0, r.Len())
	for desc := range r.All() {
		result = append(result, desc.Definition())
	}
	return result
}

// CategoryGroup is one category with its tools, in first-seen order.
type CategoryGroup struct {
	Category entity.Category
	Tools    []output.ToolDescriptor
}

func (r *ToolRegistry) ByCategory() []CategoryGroup {
	var groups []CategoryGroup
	pos := make(map[entity.Category]int)
	for desc := range r.All() {
		i, ok := pos[desc.Category]
		if !ok {
			i = len(groups)
			pos[desc.Category] = i
			groups = append(groups, CategoryGroup{Category: desc.Category})
		}
		groups[i].Tools = append(groups[i].Tools, desc)
	}
	return groups
}
