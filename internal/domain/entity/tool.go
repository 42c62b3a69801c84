package entity

type ToolName string

const (
	ToolPageNavigate   ToolName = "page_navigate"
	ToolPageScreenshot ToolName = "page_screenshot"
	ToolPageBack       ToolName = "page_back"
	ToolPageForward    ToolName = "page_forward"
	ToolPageRefresh    ToolName = "page_refresh"
	ToolPageTitle      ToolName = "page_title"
	ToolPageText       ToolName = "page_text"
	ToolPageHTML       ToolName = "page_html"
	ToolPageElements   ToolName = "page_elements"

	ToolElementFind      ToolName = "element_find"
	ToolElementClick     ToolName = "element_click"
	ToolElementInput     ToolName = "element_input"
	ToolElementText      ToolName = "element_text"
	ToolElementHTML      ToolName = "element_html"
	ToolElementAttribute ToolName = "element_attribute"

	ToolWaitForElement ToolName = "wait_for_element"
	ToolWaitTime       ToolName = "wait_time"
)

func (t ToolName) String() string {
	return string(t)
}

type Category string

const (
	CategoryPage    Category = "page"
	CategoryElement Category = "element"
	CategoryWait    Category = "wait"
)

// ToolDefinition is the transport-neutral description of a registered tool.
type ToolDefinition struct {
	Name        ToolName       `json:"name"`
	Category    Category       `json:"category"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
