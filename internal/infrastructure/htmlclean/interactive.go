package htmlclean

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

type ExtractConfig struct {
	MaxElements int
	// PriorityKeywords keeps only elements whose text or label mentions one of them.
	PriorityKeywords []string
}

var DefaultExtractConfig = ExtractConfig{
	MaxElements: 500,
}

// UIElement is one interactive element with a CSS selector usable by element tools.
type UIElement struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Label    string `json:"label,omitempty"`
	Role     string `json:"role,omitempty"`
	Count    string `json:"count,omitempty"`
	Selector string `json:"selector"`
}

var countRe = regexp.MustCompile(`\(([\d\.,\s]+)\)`)

// Interactive lists buttons, form fields, links and test-id elements in that order.
// Each element appears once, under the first group that matches it.
func Interactive(rawHTML string, cfg *ExtractConfig) ([]UIElement, error) {
	if cfg == nil {
		cfg = &DefaultExtractConfig
	}
	limit := cfg.MaxElements
	if limit <= 0 {
		limit = DefaultExtractConfig.MaxElements
	}
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	groups := []struct {
		typ   string
		match func(n *html.Node) bool
	}{
		{"button", isButton},
		{"checkbox", isCheckbox},
		{"input", isField},
		{"link", func(n *html.Node) bool { return n.Data == "a" }},
		{"element", func(n *html.Node) bool { return hasAttr(n, "data-test-id") || hasAttr(n, "data-testid") }},
	}

	var result []UIElement
	seen := make(map[*html.Node]bool)

	for _, g := range groups {
		var walk func(n *html.Node)
		walk = func(n *html.Node) {
			if len(result) >= limit {
				return
			}
			if n.Type == html.ElementNode {
				if isHidden(n) {
					return
				}
				if !seen[n] && g.match(n) {
					seen[n] = true
					if el, ok := describe(n, g.typ, cfg); ok {
						el.ID = fmt.Sprintf("ui-%04d", len(result))
						result = append(result, el)
					}
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(doc)
	}
	return result, nil
}

func describe(n *html.Node, typ string, cfg *ExtractConfig) (UIElement, bool) {
	text := nodeText(n)
	label := firstNonEmpty(attr(n, "aria-label"), attr(n, "data-tooltip"), attr(n, "title"), attr(n, "placeholder"), attr(n, "name"), text)

	if len(cfg.PriorityKeywords) > 0 && !mentions(text+" "+label, cfg.PriorityKeywords) {
		return UIElement{}, false
	}

	el := UIElement{
		Type:     typ,
		Text:     text,
		Label:    label,
		Role:     attr(n, "role"),
		Selector: cssPath(n),
	}

	// Folder-like links carry an item count: "Inbox (12)".
	if typ == "link" {
		if m := countRe.FindStringSubmatch(text); len(m) > 1 {
			el.Type = "folder"
			el.Count = strings.ReplaceAll(m[1], " ", "")
			el.Text = strings.TrimSpace(countRe.ReplaceAllString(text, ""))
		}
	}
	return el, true
}

func isButton(n *html.Node) bool {
	if n.Data == "button" || attr(n, "role") == "button" {
		return true
	}
	if n.Data == "input" {
		switch strings.ToLower(attr(n, "type")) {
		case "button", "submit", "reset":
			return true
		}
	}
	return hasAttr(n, "data-tooltip") || (attr(n, "aria-label") != "" && n.Data != "a")
}

func isCheckbox(n *html.Node) bool {
	return (n.Data == "input" && strings.EqualFold(attr(n, "type"), "checkbox")) || attr(n, "role") == "checkbox"
}

func isField(n *html.Node) bool {
	switch n.Data {
	case "textarea", "select":
		return true
	case "input":
		return !strings.EqualFold(attr(n, "type"), "hidden")
	}
	return false
}

func isHidden(n *html.Node) bool {
	if hasAttr(n, "hidden") || attr(n, "aria-hidden") == "true" {
		return true
	}
	switch n.Data {
	case "script", "style", "template", "head", "noscript":
		return true
	}
	style := strings.ReplaceAll(strings.ToLower(attr(n, "style")), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

// cssPath returns #id when the element has one, otherwise a child-indexed path from the nearest
// ancestor with an id (or from html).
func cssPath(n *html.Node) string {
	var parts []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		if id := attr(cur, "id"); id != "" {
			parts = append(parts, "#"+cssEscape(id))
			break
		}
		if tid := firstNonEmpty(attr(cur, "data-testid"), attr(cur, "data-test-id")); tid != "" && cur == n {
			key := "data-testid"
			if attr(cur, "data-testid") == "" {
				key = "data-test-id"
			}
			parts = append(parts, fmt.Sprintf(`[%s="%s"]`, key, tid))
			break
		}
		if cur.Data == "html" {
			parts = append(parts, "html")
			break
		}
		parts = append(parts, fmt.Sprintf("%s:nth-of-type(%d)", cur.Data, typeIndex(cur)))
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

func typeIndex(n *html.Node) int {
	idx := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && s.Data == n.Data {
			idx++
		}
	}
	return idx
}

func cssEscape(id string) string {
	var sb strings.Builder
	for i, r := range id {
		switch {
		case r == '-' || r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			sb.WriteRune(r)
		case r >= '0' && r <= '9' && i > 0:
			sb.WriteRune(r)
		default:
			fmt.Fprintf(&sb, `\%x `, r)
		}
	}
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func mentions(s string, keywords []string) bool {
	lower := strings.ToLower(s)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
