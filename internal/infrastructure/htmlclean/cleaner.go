// Package htmlclean trims page markup down to what a tool caller needs to read.
package htmlclean

import (
	"errors"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

type Config struct {
	TagsToRemove     []string
	AttrsToRemove    []string
	MaxOutputSize    int
	CustomAttrFilter func(attr html.Attribute) bool
}

var DefaultConfig = Config{
	TagsToRemove: []string{
		"script", "style", "noscript", "svg", "iframe",
		"link", "meta", "head", "title", "template",
	},
	AttrsToRemove: []string{
		"style", "srcset", "sizes", "loading", "decoding", "fetchpriority", "tabindex",
	},
	MaxOutputSize: 130_000,
}

var errNoBody = errors.New("no <body> in document")

const truncationNotice = "\n<!-- truncated -->"

// Clean strips scripts, styles, comments and noisy attributes and renders the children of <body>.
// Fragments are accepted; the parser places them in an implied body.
func Clean(rawHTML string, cfg *Config) (string, error) {
	if cfg == nil {
		cfg = &DefaultConfig
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	body := findElement(doc, "body")
	if body == nil {
		return "", errNoBody
	}

	cleanNode(body, cfg)

	var sb strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", err
		}
	}

	return truncate(strings.TrimSpace(sb.String()), cfg.MaxOutputSize), nil
}

// VisibleText returns whitespace-collapsed text of the body, skipping non-rendered elements.
func VisibleText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	root := findElement(doc, "body")
	if root == nil {
		root = doc
	}
	return nodeText(root)
}

// nodeText joins the whitespace-collapsed text under n, skipping script-like tags.
func nodeText(n *html.Node) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && slices.Contains(DefaultConfig.TagsToRemove, n.Data) {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.Join(parts, " ")
}

// Title returns the document <title>, or "".
func Title(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	t := findElement(doc, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return strings.TrimSpace(t.FirstChild.Data)
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func cleanNode(n *html.Node, cfg *Config) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.CommentNode:
			n.RemoveChild(c)
		case c.Type == html.ElementNode && slices.Contains(cfg.TagsToRemove, c.Data):
			n.RemoveChild(c)
		case c.Type == html.ElementNode:
			c.Attr = filterAttributes(c.Attr, cfg)
			cleanNode(c, cfg)
		}
		c = next
	}
}

func filterAttributes(attrs []html.Attribute, cfg *Config) []html.Attribute {
	var kept []html.Attribute
	for _, attr := range attrs {
		if shouldRemoveAttr(attr, cfg) {
			continue
		}
		kept = append(kept, attr)
	}
	return kept
}

func shouldRemoveAttr(attr html.Attribute, cfg *Config) bool {
	key := attr.Key
	if slices.Contains(cfg.AttrsToRemove, key) {
		return true
	}
	if strings.HasPrefix(key, "data-") || strings.HasPrefix(key, "aria-") || strings.HasPrefix(key, "on") {
		return true
	}
	return cfg.CustomAttrFilter != nil && cfg.CustomAttrFilter(attr)
}

func truncate(s string, maxSize int) string {
	if maxSize > 0 && len(s) > maxSize {
		return s[:maxSize] + truncationNotice
	}
	return s
}
