package tool

import (
	"browser-dispatch/internal/application/port/output"
)

// All returns the built-in browser tools in listing order.
func All() []output.ToolDescriptor {
	return []output.ToolDescriptor{
		NavigateTool(),
		ScreenshotTool(),
		BackTool(),
		ForwardTool(),
		RefreshTool(),
		TitleTool(),
		TextTool(),
		HTMLTool(),
		ElementsTool(),

		FindTool(),
		ClickTool(),
		InputTool(),
		ElementTextTool(),
		ElementHTMLTool(),
		AttributeTool(),

		WaitForElementTool(),
		WaitTimeTool(),
	}
}

type Registrar interface {
	Register(desc output.ToolDescriptor) error
}

func RegisterAll(r Registrar) error {
	for _, d := range All() {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}
