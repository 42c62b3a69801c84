// Package scenario replays fixed tool calls against a dispatcher, as a smoke test of a backend.
package scenario

import (
	"context"
	"time"

	"browser-dispatch/internal/application/port/input"
	"browser-dispatch/internal/application/port/output"
	"browser-dispatch/internal/domain/entity"
)

type Scenario struct {
	Name string
	Tool entity.ToolName
	Args map[string]any
}

func Default() []Scenario {
	return []Scenario{
		{Name: "Navigation Test", Tool: entity.ToolPageNavigate, Args: map[string]any{"url": "https://www.example.com"}},
		{Name: "Screenshot Test", Tool: entity.ToolPageScreenshot, Args: map[string]any{"full_page": false}},
		{Name: "Element Click Test", Tool: entity.ToolElementClick, Args: map[string]any{"selector": "#submit-button"}},
		{Name: "Element Find Test", Tool: entity.ToolElementFind, Args: map[string]any{"selector": ".content"}},
		{Name: "Wait Test", Tool: entity.ToolWaitForElement, Args: map[string]any{"selector": ".loading", "timeout": 5}},
	}
}

type Result struct {
	Scenario Scenario
	Items    []entity.ResponseItem
	Err      error
	Duration time.Duration
}

func (r Result) Passed() bool {
	return r.Err == nil
}

type Report struct {
	Results []Result
	Passed  int
}

func (r Report) AllPassed() bool {
	return r.Passed == len(r.Results)
}

type Runner struct {
	dispatcher input.ToolDispatcher
	logger     output.LoggerPort
}

func NewRunner(dispatcher input.ToolDispatcher, logger output.LoggerPort) *Runner {
	return &Runner{
		dispatcher: dispatcher,
		logger:     logger.WithField("component", "scenario"),
	}
}

// Run executes scenarios in order. A failing scenario does not stop the run.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) Report {
	report := Report{Results: make([]Result, 0, len(scenarios))}
	for _, sc := range scenarios {
		if ctx.Err() != nil {
			report.Results = append(report.Results, Result{Scenario: sc, Err: ctx.Err()})
			continue
		}

		start := time.Now()
		items, err := r.dispatcher.Dispatch(ctx, sc.Tool, sc.Args)
		res := Result{Scenario: sc, Items: items, Err: err, Duration: time.Since(start)}
		report.Results = append(report.Results, res)

		if err != nil {
			r.logger.Warn("Scenario failed", "scenario", sc.Name, "error", err)
			continue
		}
		report.Passed++
		r.logger.Info("Scenario passed", "scenario", sc.Name, "items", len(items))
	}
	return report
}
