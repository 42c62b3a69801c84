package tool

import (
	"context"
	"fmt"
	"time"

	"browser-dispatch/internal/application/port/output"
	"browser-dispatch/internal/domain/entity"
)

func WaitForElementTool() output.ToolDescriptor {
	return output.ToolDescriptor{
		Name:        entity.ToolWaitForElement,
		Category:    entity.CategoryWait,
		Description: "Wait until an element matching the selector appears on the page.",
		Schema:      entity.Schema{Fields: []entity.Field{selectorField, timeoutField}},
		Execute: func(ctx context.Context, browser output.BrowserPort, args entity.Arguments, resp output.ResponseSink) error {
			in, err := decode[selectorInput](args)
			if err != nil {
				return err
			}
			start := time.Now()
			if _, err := browser.Find(ctx, in.Selector, in.target().timeout()); err != nil {
				return err
			}
			return resp.AddText(fmt.Sprintf("Element %s appeared after %s", in.Selector, time.Since(start).Round(time.Millisecond)))
		},
	}
}

func WaitTimeTool() output.ToolDescriptor {
	return output.ToolDescriptor{
		Name:        entity.ToolWaitTime,
		Category:    entity.CategoryWait,
		Description: "Pause for a fixed number of seconds, e.g. to let animations settle.",
		Schema: entity.Schema{Fields: []entity.Field{{
			Name:        "seconds",
			Type:        entity.TypeNumber,
			Required:    true,
			Min:         entity.Float(0),
			Max:         entity.Float(maxWaitSeconds),
			Description: "Seconds to wait.",
		}}},
		Execute: func(ctx context.Context, browser output.BrowserPort, args entity.Arguments, resp output.ResponseSink) error {
			in, err := decode[struct {
				Seconds float64 `mapstructure:"seconds"`
			}](args)
			if err != nil {
				return err
			}
			t := time.NewTimer(seconds(in.Seconds))
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
				return ctx.Err()
			}
			return resp.AddText(fmt.Sprintf("Waited %.1fs", in.Seconds))
		},
	}
}
