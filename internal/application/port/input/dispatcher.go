package input

import (
	"context"
	"time"

	"browser-dispatch/internal/domain/entity"
)

type DispatchOptions struct {
	Timeout time.Duration
}

type DispatchOption func(*DispatchOptions)

// WithTimeout bounds the execution step of a single dispatch. Zero disables the deadline.
func WithTimeout(d time.Duration) DispatchOption {
	return func(o *DispatchOptions) {
		o.Timeout = d
	}
}

type ToolDispatcher interface {
	Dispatch(ctx context.Context, name entity.ToolName, args map[string]any, opts ...DispatchOption) ([]entity.ResponseItem, error)
	Definitions() []entity.ToolDefinition
}

// SessionControl exposes explicit lifecycle of the shared execution context.
type SessionControl interface {
	Open(ctx context.Context) error
	Cleanup() error
	IsOpen() bool
}
