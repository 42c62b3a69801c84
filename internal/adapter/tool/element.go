package tool

import (
	"context"
	"errors"
	"fmt"

	"browser-dispatch/internal/application/port/output"
	"browser-dispatch/internal/domain/entity"
	"browser-dispatch/internal/infrastructure/htmlclean"
)

var ErrAttributeMissing = errors.New("attribute not present")

// elementTool builds a tool that resolves args.selector before running fn.
// Extra fields are appended after selector and timeout.
func elementTool[T interface{ target() elementArgs }](
	name entity.ToolName,
	description string,
	extra []entity.Field,
	fn func(ctx context.Context, el output.Element, in T, resp output.ResponseSink) error,
) output.ToolDescriptor {
	fields := append([]entity.Field{selectorField}, extra...)
	fields = append(fields, timeoutField)

	return output.ToolDescriptor{
		Name:        name,
		Category:    entity.CategoryElement,
		Description: description,
		Schema:      entity.Schema{Fields: fields},
		Execute: func(ctx context.Context, browser output.BrowserPort, args entity.Arguments, resp output.ResponseSink) error {
			in, err := decode[T](args)
			if err != nil {
				return err
			}
			t := in.target()
			el, err := browser.Find(ctx, t.Selector, t.timeout())
			if err != nil {
				return err
			}
			return fn(ctx, el, in, resp)
		},
	}
}

type selectorInput struct {
	Selector string  `mapstructure:"selector"`
	Timeout  float64 `mapstructure:"timeout"`
}

func (i selectorInput) target() elementArgs { return elementArgs(i) }

type inputInput struct {
	Selector string  `mapstructure:"selector"`
	Timeout  float64 `mapstructure:"timeout"`
	Text     string  `mapstructure:"text"`
	Clear    bool    `mapstructure:"clear"`
}

func (i inputInput) target() elementArgs { return elementArgs{i.Selector, i.Timeout} }

type htmlInput struct {
	Selector string  `mapstructure:"selector"`
	Timeout  float64 `mapstructure:"timeout"`
	Clean    bool    `mapstructure:"clean"`
}

func (i htmlInput) target() elementArgs { return elementArgs{i.Selector, i.Timeout} }

type attributeInput struct {
	Selector string  `mapstructure:"selector"`
	Timeout  float64 `mapstructure:"timeout"`
	Name     string  `mapstructure:"name"`
}

func (i attributeInput) target() elementArgs { return elementArgs{i.Selector, i.Timeout} }

func FindTool() output.ToolDescriptor {
	return elementTool(entity.ToolElementFind,
		"Find an element by selector and describe it. Fails when no element matches within the timeout.",
		nil,
		func(ctx context.Context, el output.Element, in selectorInput, resp output.ResponseSink) error {
			text, err := el.Text(ctx)
			if err != nil {
				return err
			}
			return resp.AddText(fmt.Sprintf("Found element %s: %s", el.Selector(), preview(text)))
		})
}

func ClickTool() output.ToolDescriptor {
	return elementTool(entity.ToolElementClick,
		"Click the element matching the selector.",
		nil,
		func(ctx context.Context, el output.Element, in selectorInput, resp output.ResponseSink) error {
			if err := el.Click(ctx); err != nil {
				return err
			}
			return resp.AddText(fmt.Sprintf("Clicked %s", el.Selector()))
		})
}

func InputTool() output.ToolDescriptor {
	return elementTool(entity.ToolElementInput,
		"Type text into an input or textarea matching the selector.",
		[]entity.Field{
			{Name: "text", Type: entity.TypeString, Required: true, Description: "Text to type."},
			{Name: "clear", Type: entity.TypeBoolean, Default: true, Description: "Clear the current value before typing."},
		},
		func(ctx context.Context, el output.Element, in inputInput, resp output.ResponseSink) error {
			if err := el.Input(ctx, in.Text, in.Clear); err != nil {
				return err
			}
			return resp.AddText(fmt.Sprintf("Entered %d characters into %s", len([]rune(in.Text)), el.Selector()))
		})
}

func ElementTextTool() output.ToolDescriptor {
	return elementTool(entity.ToolElementText,
		"Return the text content of the element matching the selector.",
		nil,
		func(ctx context.Context, el output.Element, in selectorInput, resp output.ResponseSink) error {
			text, err := el.Text(ctx)
			if err != nil {
				return err
			}
			return resp.AddText(text)
		})
}

func ElementHTMLTool() output.ToolDescriptor {
	return elementTool(entity.ToolElementHTML,
		"Return the outer HTML of the element matching the selector.",
		[]entity.Field{
			{Name: "clean", Type: entity.TypeBoolean, Default: false, Description: "Strip scripts, styles, comments and presentation attributes."},
		},
		func(ctx context.Context, el output.Element, in htmlInput, resp output.ResponseSink) error {
			html, err := el.HTML(ctx)
			if err != nil {
				return err
			}
			if in.Clean {
				if html, err = htmlclean.Clean(html, nil); err != nil {
					return fmt.Errorf("clean html: %w", err)
				}
			}
			return resp.AddText(html)
		})
}

func AttributeTool() output.ToolDescriptor {
	return elementTool(entity.ToolElementAttribute,
		"Return the value of an attribute (e.g. href, value) of the element matching the selector.",
		[]entity.Field{
			{Name: "name", Type: entity.TypeString, Required: true, MinLength: 1, Description: "Attribute name."},
		},
		func(ctx context.Context, el output.Element, in attributeInput, resp output.ResponseSink) error {
			value, ok, err := el.Attribute(ctx, in.Name)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %q on %s", ErrAttributeMissing, in.Name, el.Selector())
			}
			return resp.AddText(value)
		})
}
