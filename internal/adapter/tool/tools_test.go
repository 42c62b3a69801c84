package tool

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"browser-dispatch/internal/application/port/input"
	"browser-dispatch/internal/application/port/output"
	"browser-dispatch/internal/application/service"
	"browser-dispatch/internal/domain/entity"
	"browser-dispatch/internal/infrastructure/browser/memory"
	"browser-dispatch/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	dispatcher *service.Dispatcher
	browser    *memory.Browser
}

func newHarness(t *testing.T, opts memory.Options) *harness {
	t.Helper()

	h := &harness{}
	factory := func(ctx context.Context) (output.BrowserPort, error) {
		h.browser = memory.New(opts)
		return h.browser, nil
	}
	log := logger.NewNop()
	session := service.NewSession(factory, log)
	t.Cleanup(func() { _ = session.Cleanup() })

	registry := service.NewToolRegistry()
	require.NoError(t, RegisterAll(registry))

	h.dispatcher = service.NewDispatcher(registry, session, log, 10*time.Second)
	return h
}

func (h *harness) call(t *testing.T, name entity.ToolName, args map[string]any) []entity.ResponseItem {
	t.Helper()
	items, err := h.dispatcher.Dispatch(context.Background(), name, args)
	require.NoError(t, err)
	return items
}

func (h *harness) text(t *testing.T, name entity.ToolName, args map[string]any) string {
	t.Helper()
	items := h.call(t, name, args)
	require.Len(t, items, 1)
	require.Equal(t, entity.ItemText, items[0].Kind)
	return items[0].Text
}

func TestAll_UniqueNamesAndSchemas(t *testing.T) {
	tools := All()
	require.Len(t, tools, 17)

	seen := make(map[entity.ToolName]bool)
	for _, d := range tools {
		assert.False(t, seen[d.Name], "duplicate %s", d.Name)
		seen[d.Name] = true
		assert.NotEmpty(t, d.Description, d.Name)
		assert.NotEmpty(t, d.Category, d.Name)
		assert.NotNil(t, d.Execute, d.Name)
	}

	registry := service.NewToolRegistry()
	require.NoError(t, RegisterAll(registry))
	assert.ErrorIs(t, RegisterAll(registry), entity.ErrDuplicateName)
}

func TestAll_Categories(t *testing.T) {
	registry := service.NewToolRegistry()
	require.NoError(t, RegisterAll(registry))

	groups := registry.ByCategory()
	require.Len(t, groups, 3)
	assert.Equal(t, entity.CategoryPage, groups[0].Category)
	assert.Len(t, groups[0].Tools, 9)
	assert.Equal(t, entity.CategoryElement, groups[1].Category)
	assert.Len(t, groups[1].Tools, 6)
	assert.Equal(t, entity.CategoryWait, groups[2].Category)
	assert.Len(t, groups[2].Tools, 2)
}

func TestElementTools_RequireSelector(t *testing.T) {
	h := newHarness(t, memory.DefaultOptions())
	for _, name := range []entity.ToolName{
		entity.ToolElementFind,
		entity.ToolElementClick,
		entity.ToolElementText,
		entity.ToolElementHTML,
		entity.ToolWaitForElement,
	} {
		_, err := h.dispatcher.Dispatch(context.Background(), name, map[string]any{})
		var verr *entity.ValidationError
		require.ErrorAs(t, err, &verr, name)
		assert.Equal(t, "selector", verr.Field, name)
	}
}

func TestNavigate(t *testing.T) {
	h := newHarness(t, memory.DefaultOptions())

	out := h.text(t, entity.ToolPageNavigate, map[string]any{"url": "https://www.example.com"})
	assert.Equal(t, `Navigated to https://www.example.com (title: "Example Domain")`, out)
	assert.Equal(t, "https://www.example.com", h.browser.URL())
}

func TestNavigate_RejectsBadURL(t *testing.T) {
	h := newHarness(t, memory.DefaultOptions())
	_, err := h.dispatcher.Dispatch(context.Background(), entity.ToolPageNavigate, map[string]any{"url": "example.com"})
	assert.ErrorIs(t, err, entity.ErrValidation)
	assert.Nil(t, h.browser, "validation failure must not open a browser")
}

func TestScreenshot(t *testing.T) {
	h := newHarness(t, memory.DefaultOptions())

	items := h.call(t, entity.ToolPageScreenshot, nil)
	require.Len(t, items, 1)
	assert.Equal(t, entity.ItemBinary, items[0].Kind)
	assert.Equal(t, entity.MediaTypePNG, items[0].MediaType)
	assert.True(t, bytes.HasPrefix(items[0].Data, []byte("\x89PNG")))

	ops := h.browser.Ops()
	require.NotEmpty(t, ops)
	assert.Equal(t, "full_page=false", ops[len(ops)-1].Arg)

	h.call(t, entity.ToolPageScreenshot, map[string]any{"full_page": true})
	ops = h.browser.Ops()
	assert.Equal(t, "full_page=true", ops[len(ops)-1].Arg)
}

func TestHistoryTools(t *testing.T) {
	h := newHarness(t, memory.DefaultOptions())
	h.call(t, entity.ToolPageNavigate, map[string]any{"url": "https://a.example.com"})
	h.call(t, entity.ToolPageNavigate, map[string]any{"url": "https://b.example.com"})

	assert.Equal(t, "Went back: now at https://a.example.com", h.text(t, entity.ToolPageBack, nil))
	assert.Equal(t, "Went forward: now at https://b.example.com", h.text(t, entity.ToolPageForward, nil))
	assert.Equal(t, "Refreshed: now at https://b.example.com", h.text(t, entity.ToolPageRefresh, nil))
}

func TestPageContentTools(t *testing.T) {
	h := newHarness(t, memory.DefaultOptions())
	h.call(t, entity.ToolPageNavigate, map[string]any{"url": "https://www.example.com"})

	assert.Equal(t, "Example Domain", h.text(t, entity.ToolPageTitle, nil))
	assert.Contains(t, h.text(t, entity.ToolPageText, nil), "illustrative examples")

	clean := h.text(t, entity.ToolPageHTML, nil)
	assert.NotContains(t, clean, "<head>")
	assert.Contains(t, clean, "Example Domain")

	raw := h.text(t, entity.ToolPageHTML, map[string]any{"clean": false})
	assert.True(t, strings.HasPrefix(raw, "<html>"))
}

func TestPageElements(t *testing.T) {
	h := newHarness(t, memory.DefaultOptions())
	h.call(t, entity.ToolPageNavigate, map[string]any{"url": "https://www.example.com"})

	out := h.text(t, entity.ToolPageElements, nil)
	assert.True(t, strings.HasPrefix(out, "Found 4 interactive elements:"), out)
	assert.Contains(t, out, `ui-0000 [button] "Button" -> #button`)
	assert.Contains(t, out, `ui-0001 [button] "Submit" -> #submit-button`)
	assert.Contains(t, out, `ui-0002 [input] "name" -> #name`)
	assert.Contains(t, out, `ui-0003 [link] "More information..." -> html > body:nth-of-type(1) > div:nth-of-type(1) > a:nth-of-type(1)`)

	limited := h.text(t, entity.ToolPageElements, map[string]any{"max": 1})
	assert.Equal(t, "Found 1 interactive elements:\nui-0000 [button] \"Button\" -> #button", limited)

	filtered := h.text(t, entity.ToolPageElements, map[string]any{"keyword": "SUBMIT"})
	assert.Equal(t, "Found 1 interactive elements:\nui-0000 [button] \"Submit\" -> #submit-button", filtered)

	none := h.text(t, entity.ToolPageElements, map[string]any{"keyword": "checkout"})
	assert.Equal(t, "No interactive elements found", none)

	_, err := h.dispatcher.Dispatch(context.Background(), entity.ToolPageElements, map[string]any{"max": 0})
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestElementFind(t *testing.T) {
	h := newHarness(t, memory.DefaultOptions())
	h.call(t, entity.ToolPageNavigate, map[string]any{"url": "https://www.example.com"})

	out := h.text(t, entity.ToolElementFind, map[string]any{"selector": ".content"})
	assert.True(t, strings.HasPrefix(out, "Found element .content: This domain"))

	_, err := h.dispatcher.Dispatch(context.Background(), entity.ToolElementFind,
		map[string]any{"selector": "#missing", "timeout": 0.1})
	assert.ErrorIs(t, err, entity.ErrExecution)
	assert.ErrorIs(t, err, entity.ErrElementNotFound)
}

func TestElementClick(t *testing.T) {
	h := newHarness(t, memory.DefaultOptions())
	h.call(t, entity.ToolPageNavigate, map[string]any{"url": "https://www.example.com"})

	assert.Equal(t, "Clicked #submit-button", h.text(t, entity.ToolElementClick, map[string]any{"selector": "#submit-button"}))

	h.call(t, entity.ToolElementClick, map[string]any{"selector": "a"})
	assert.Equal(t, "https://www.iana.org/domains/example", h.browser.URL())
}

func TestElementInputAndAttribute(t *testing.T) {
	h := newHarness(t, memory.DefaultOptions())
	h.call(t, entity.ToolPageNavigate, map[string]any{"url": "https://www.example.com"})

	out := h.text(t, entity.ToolElementInput, map[string]any{"selector": "#name", "text": "Ada"})
	assert.Equal(t, "Entered 3 characters into #name", out)
	h.call(t, entity.ToolElementInput, map[string]any{"selector": "#name", "text": " Lovelace", "clear": false})
	assert.Equal(t, "Ada Lovelace", h.browser.InputValue("#name"))

	assert.Equal(t, "Ada Lovelace", h.text(t, entity.ToolElementAttribute, map[string]any{"selector": "#name", "name": "value"}))
	assert.Equal(t, "https://www.iana.org/domains/example", h.text(t, entity.ToolElementAttribute, map[string]any{"selector": "a", "name": "href"}))

	_, err := h.dispatcher.Dispatch(context.Background(), entity.ToolElementAttribute,
		map[string]any{"selector": "a", "name": "data-missing"})
	assert.ErrorIs(t, err, ErrAttributeMissing)
}

func TestElementTextAndHTML(t *testing.T) {
	h := newHarness(t, memory.DefaultOptions())
	h.call(t, entity.ToolPageNavigate, map[string]any{"url": "https://www.example.com"})

	assert.Equal(t, "Example Domain", h.text(t, entity.ToolElementText, map[string]any{"selector": "h1"}))
	assert.Equal(t, "<h1>Example Domain</h1>", h.text(t, entity.ToolElementHTML, map[string]any{"selector": "h1"}))
}

func TestWaitForElement(t *testing.T) {
	page := memory.DefaultPage("https://spa.example.com")
	page.Elements["#ready"] = memory.ElementFixture{Text: "ready", AppearsAfter: 100 * time.Millisecond}
	h := newHarness(t, memory.Options{Pages: map[string]memory.Page{"https://spa.example.com": page}})
	h.call(t, entity.ToolPageNavigate, map[string]any{"url": "https://spa.example.com"})

	out := h.text(t, entity.ToolWaitForElement, map[string]any{"selector": "#ready", "timeout": 5})
	assert.True(t, strings.HasPrefix(out, "Element #ready appeared after"))

	out = h.text(t, entity.ToolWaitForElement, map[string]any{"selector": ".loading", "timeout": 5})
	assert.True(t, strings.HasPrefix(out, "Element .loading appeared after"))
}

func TestWaitTime(t *testing.T) {
	h := newHarness(t, memory.DefaultOptions())

	start := time.Now()
	assert.Equal(t, "Waited 0.1s", h.text(t, entity.ToolWaitTime, map[string]any{"seconds": 0.1}))
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)

	_, err := h.dispatcher.Dispatch(context.Background(), entity.ToolWaitTime, map[string]any{"seconds": 61})
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestWaitTime_HonorsTimeout(t *testing.T) {
	h := newHarness(t, memory.DefaultOptions())

	start := time.Now()
	_, err := h.dispatcher.Dispatch(context.Background(), entity.ToolWaitTime, map[string]any{"seconds": 5},
		input.WithTimeout(100*time.Millisecond))
	assert.ErrorIs(t, err, entity.ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPreview(t *testing.T) {
	short := "hello"
	assert.Equal(t, short, preview(short))

	long := strings.Repeat("é", previewLen+10)
	p := preview(long)
	assert.True(t, strings.HasSuffix(p, "..."))
	assert.Equal(t, previewLen+3, len([]rune(p)))
}

func TestDecode_RejectsUnknownKeys(t *testing.T) {
	_, err := decode[selectorInput](entity.Arguments{"selector": "a", "timeout": 1.0, "extra": true})
	assert.Error(t, err)

	in, err := decode[selectorInput](entity.Arguments{"selector": "a", "timeout": 2.5})
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, in.target().timeout())
}
