package tool

import (
	"context"
	"fmt"
	"strings"

	"browser-dispatch/internal/application/port/output"
	"browser-dispatch/internal/domain/entity"
	"browser-dispatch/internal/infrastructure/htmlclean"
)

func NavigateTool() output.ToolDescriptor {
	return output.ToolDescriptor{
		Name:        entity.ToolPageNavigate,
		Category:    entity.CategoryPage,
		Description: "Navigate the browser to a URL and wait until the page is loaded. Returns the final URL, which may differ after redirects.",
		Schema: entity.Schema{Fields: []entity.Field{{
			Name:        "url",
			Type:        entity.TypeString,
			Required:    true,
			Format:      entity.FormatURL,
			Description: "Full URL including scheme (https://, http://, file:// or about:).",
		}}},
		Execute: func(ctx context.Context, browser output.BrowserPort, args entity.Arguments, resp output.ResponseSink) error {
			in, err := decode[struct {
				URL string `mapstructure:"url"`
			}](args)
			if err != nil {
				return err
			}
			if err := browser.Navigate(ctx, in.URL); err != nil {
				return err
			}
			info, err := browser.Info(ctx)
			if err != nil {
				return err
			}
			return resp.AddText(fmt.Sprintf("Navigated to %s (title: %q)", info.URL, info.Title))
		},
	}
}

func ScreenshotTool() output.ToolDescriptor {
	return output.ToolDescriptor{
		Name:        entity.ToolPageScreenshot,
		Category:    entity.CategoryPage,
		Description: "Capture a screenshot of the current page as an image.",
		Schema: entity.Schema{Fields: []entity.Field{{
			Name:        "full_page",
			Type:        entity.TypeBoolean,
			Default:     false,
			Description: "Capture the entire scrollable area instead of the visible viewport.",
		}}},
		Execute: func(ctx context.Context, browser output.BrowserPort, args entity.Arguments, resp output.ResponseSink) error {
			in, err := decode[struct {
				FullPage bool `mapstructure:"full_page"`
			}](args)
			if err != nil {
				return err
			}
			shot, err := browser.Screenshot(ctx, in.FullPage)
			if err != nil {
				return err
			}
			return resp.AddBinary(shot.Data, shot.MediaType())
		},
	}
}

func historyTool(name entity.ToolName, description, verb string, step func(output.BrowserPort, context.Context) error) output.ToolDescriptor {
	return output.ToolDescriptor{
		Name:        name,
		Category:    entity.CategoryPage,
		Description: description,
		Execute: func(ctx context.Context, browser output.BrowserPort, args entity.Arguments, resp output.ResponseSink) error {
			if err := step(browser, ctx); err != nil {
				return err
			}
			info, err := browser.Info(ctx)
			if err != nil {
				return err
			}
			return resp.AddText(fmt.Sprintf("%s: now at %s", verb, info.URL))
		},
	}
}

func BackTool() output.ToolDescriptor {
	return historyTool(entity.ToolPageBack, "Go back one entry in the browser history.", "Went back", output.BrowserPort.Back)
}

func ForwardTool() output.ToolDescriptor {
	return historyTool(entity.ToolPageForward, "Go forward one entry in the browser history.", "Went forward", output.BrowserPort.Forward)
}

func RefreshTool() output.ToolDescriptor {
	return historyTool(entity.ToolPageRefresh, "Reload the current page.", "Refreshed", output.BrowserPort.Refresh)
}

func TitleTool() output.ToolDescriptor {
	return output.ToolDescriptor{
		Name:        entity.ToolPageTitle,
		Category:    entity.CategoryPage,
		Description: "Return the title of the current page.",
		Execute: func(ctx context.Context, browser output.BrowserPort, args entity.Arguments, resp output.ResponseSink) error {
			info, err := browser.Info(ctx)
			if err != nil {
				return err
			}
			return resp.AddText(info.Title)
		},
	}
}

func TextTool() output.ToolDescriptor {
	return output.ToolDescriptor{
		Name:        entity.ToolPageText,
		Category:    entity.CategoryPage,
		Description: "Return all visible text of the current page.",
		Execute: func(ctx context.Context, browser output.BrowserPort, args entity.Arguments, resp output.ResponseSink) error {
			text, err := browser.Text(ctx)
			if err != nil {
				return err
			}
			return resp.AddText(text)
		},
	}
}

func HTMLTool() output.ToolDescriptor {
	return output.ToolDescriptor{
		Name:        entity.ToolPageHTML,
		Category:    entity.CategoryPage,
		Description: "Return the HTML of the current page. By default scripts, styles, comments and noisy attributes are stripped.",
		Schema: entity.Schema{Fields: []entity.Field{{
			Name:        "clean",
			Type:        entity.TypeBoolean,
			Default:     true,
			Description: "Strip scripts, styles, comments and presentation attributes.",
		}}},
		Execute: func(ctx context.Context, browser output.BrowserPort, args entity.Arguments, resp output.ResponseSink) error {
			in, err := decode[struct {
				Clean bool `mapstructure:"clean"`
			}](args)
			if err != nil {
				return err
			}
			html, err := browser.HTML(ctx)
			if err != nil {
				return err
			}
			if in.Clean {
				if html, err = htmlclean.Clean(html, nil); err != nil {
					return fmt.Errorf("clean html: %w", err)
				}
			}
			return resp.AddText(html)
		},
	}
}

func ElementsTool() output.ToolDescriptor {
	return output.ToolDescriptor{
		Name:        entity.ToolPageElements,
		Category:    entity.CategoryPage,
		Description: "List interactive elements of the current page (buttons, checkboxes, form fields, links) with a CSS selector for each, usable by the element tools.",
		Schema: entity.Schema{Fields: []entity.Field{
			{
				Name:        "max",
				Type:        entity.TypeInteger,
				Default:     50,
				Min:         entity.Float(1),
				Max:         entity.Float(500),
				Description: "Maximum number of elements to list.",
			},
			{
				Name:        "keyword",
				Type:        entity.TypeString,
				Description: "Only list elements whose text or label contains this keyword (case-insensitive).",
			},
		}},
		Execute: func(ctx context.Context, browser output.BrowserPort, args entity.Arguments, resp output.ResponseSink) error {
			in, err := decode[struct {
				Max     int    `mapstructure:"max"`
				Keyword string `mapstructure:"keyword"`
			}](args)
			if err != nil {
				return err
			}
			raw, err := browser.HTML(ctx)
			if err != nil {
				return err
			}
			cfg := htmlclean.ExtractConfig{MaxElements: in.Max}
			if in.Keyword != "" {
				cfg.PriorityKeywords = []string{in.Keyword}
			}
			elements, err := htmlclean.Interactive(raw, &cfg)
			if err != nil {
				return fmt.Errorf("extract elements: %w", err)
			}
			if len(elements) == 0 {
				return resp.AddText("No interactive elements found")
			}

			var sb strings.Builder
			fmt.Fprintf(&sb, "Found %d interactive elements:", len(elements))
			for _, el := range elements {
				fmt.Fprintf(&sb, "\n%s [%s] %q -> %s", el.ID, el.Type, preview(el.Label), el.Selector)
				if el.Count != "" {
					fmt.Fprintf(&sb, " (count %s)", el.Count)
				}
			}
			return resp.AddText(sb.String())
		},
	}
}
