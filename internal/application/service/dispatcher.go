package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"browser-dispatch/internal/application/port/input"
	"browser-dispatch/internal/application/port/output"
	"browser-dispatch/internal/domain/entity"

	"github.com/google/uuid"
)

var _ input.ToolDispatcher = (*Dispatcher)(nil)

type Dispatcher struct {
	registry       *ToolRegistry
	session        *Session
	logger         output.LoggerPort
	defaultTimeout time.Duration
}

func NewDispatcher(registry *ToolRegistry, session *Session, logger output.LoggerPort, defaultTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		registry:       registry,
		session:        session,
		logger:         logger.WithField("component", "dispatcher"),
		defaultTimeout: defaultTimeout,
	}
}

func (d *Dispatcher) Definitions() []entity.ToolDefinition {
	return d.registry.Definitions()
}

// Dispatch resolves, validates and executes one tool call against the shared session.
// Lookup and validation failures never touch the session.
func (d *Dispatcher) Dispatch(ctx context.Context, name entity.ToolName, args map[string]any, opts ...input.DispatchOption) ([]entity.ResponseItem, error) {
	o := input.DispatchOptions{Timeout: d.defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	log := d.logger.WithFields(map[string]any{
		"request_id": uuid.NewString(),
		"tool":       name.String(),
	})

	desc, validator, err := d.registry.resolve(name)
	if err != nil {
		log.Warn("Unknown tool called")
		return nil, err
	}

	validated, err := validator.Validate(args)
	if err != nil {
		log.Warn("Invalid tool arguments", "error", err)
		return nil, err
	}

	lease, err := d.session.Acquire(ctx)
	if err != nil {
		log.Warn("Session unavailable", "error", err)
		if errors.Is(err, entity.ErrContextClosed) {
			return nil, err
		}
		return nil, fmt.Errorf("acquire session: %w", err)
	}
	defer lease.Release()

	log.Info("Executing tool", "args", validated, "timeout", o.Timeout.String())
	start := time.Now()

	items, err := d.execute(ctx, desc, validated, lease, o.Timeout)
	if err != nil {
		log.Error("Tool execution failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	log.Info("Tool completed", "items", len(items), "duration_ms", time.Since(start).Milliseconds())
	return items, nil
}

func (d *Dispatcher) execute(
	ctx context.Context,
	desc output.ToolDescriptor,
	args entity.Arguments,
	lease *Lease,
	timeout time.Duration,
) ([]entity.ResponseItem, error) {
	execCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	resp := NewResponseBuilder()
	done := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- desc.Execute(execCtx, lease, args, resp)
	}()

	select {
	case err := <-done:
		if err != nil {
			resp.finalize()
			return nil, d.classify(ctx, execCtx, desc.Name, lease, timeout, err)
		}
		return resp.Collect()

	case <-execCtx.Done():
		// The tool may not honor cancellation; revoke its lease so the next caller can proceed.
		lease.revoke()
		resp.finalize()
		if ctx.Err() == nil {
			return nil, &entity.TimeoutError{Tool: desc.Name, Timeout: timeout}
		}
		return nil, &entity.ExecutionError{Tool: desc.Name, Cause: ctx.Err()}
	}
}

func (d *Dispatcher) classify(ctx, execCtx context.Context, name entity.ToolName, lease *Lease, timeout time.Duration, err error) error {
	switch {
	case errors.Is(err, entity.ErrSessionLost):
		d.session.markLost(lease.Generation(), err)
		return &entity.SessionLostError{Tool: name, Cause: err}
	case ctx.Err() == nil && errors.Is(execCtx.Err(), context.DeadlineExceeded) && errors.Is(err, context.DeadlineExceeded):
		return &entity.TimeoutError{Tool: name, Timeout: timeout}
	default:
		return &entity.ExecutionError{Tool: name, Cause: err}
	}
}
