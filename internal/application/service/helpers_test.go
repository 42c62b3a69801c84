package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"browser-dispatch/internal/application/port/output"
	"browser-dispatch/internal/domain/entity"
	"browser-dispatch/internal/infrastructure/browser/memory"
	"browser-dispatch/internal/infrastructure/logger"
)

// trackingFactory builds memory browsers and remembers each one it handed out.
type trackingFactory struct {
	opts memory.Options

	mu       sync.Mutex
	browsers []*memory.Browser
}

func (f *trackingFactory) build(ctx context.Context) (output.BrowserPort, error) {
	b := memory.New(f.opts)
	f.mu.Lock()
	f.browsers = append(f.browsers, b)
	f.mu.Unlock()
	return b, nil
}

func (f *trackingFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.browsers)
}

func (f *trackingFactory) last(t *testing.T) *memory.Browser {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.browsers) == 0 {
		t.Fatal("no browser was opened")
	}
	return f.browsers[len(f.browsers)-1]
}

type fixture struct {
	factory    *trackingFactory
	session    *Session
	registry   *ToolRegistry
	dispatcher *Dispatcher
}

func newFixture(t *testing.T, opts memory.Options, timeout time.Duration, tools ...output.ToolDescriptor) *fixture {
	t.Helper()

	f := &trackingFactory{opts: opts}
	log := logger.NewNop()
	session := NewSession(f.build, log)
	registry := NewToolRegistry()
	registry.MustRegister(tools...)

	t.Cleanup(func() { _ = session.Cleanup() })

	return &fixture{
		factory:    f,
		session:    session,
		registry:   registry,
		dispatcher: NewDispatcher(registry, session, log, timeout),
	}
}

func textTool(name entity.ToolName, fn output.ExecuteFunc) output.ToolDescriptor {
	return output.ToolDescriptor{
		Name:        name,
		Category:    entity.CategoryPage,
		Description: "test tool " + name.String(),
		Execute:     fn,
	}
}

var urlSchema = entity.Schema{Fields: []entity.Field{
	{Name: "url", Type: entity.TypeString, Required: true, Format: entity.FormatURL},
}}

// navigateTool mirrors page_navigate without depending on the tool package.
func navigateTool() output.ToolDescriptor {
	return output.ToolDescriptor{
		Name:     "navigate",
		Category: entity.CategoryPage,
		Schema:   urlSchema,
		Execute: func(ctx context.Context, browser output.BrowserPort, args entity.Arguments, resp output.ResponseSink) error {
			if err := browser.Navigate(ctx, args["url"].(string)); err != nil {
				return err
			}
			info, err := browser.Info(ctx)
			if err != nil {
				return err
			}
			return resp.AddText(info.URL)
		},
	}
}

func titleTool() output.ToolDescriptor {
	return textTool("title", func(ctx context.Context, browser output.BrowserPort, args entity.Arguments, resp output.ResponseSink) error {
		info, err := browser.Info(ctx)
		if err != nil {
			return err
		}
		return resp.AddText(info.Title)
	})
}
