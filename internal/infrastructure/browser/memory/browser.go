// Package memory is an in-process browser backend driven by page fixtures.
// It records every operation with timestamps so callers can assert ordering.
package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"sync"
	"time"

	"browser-dispatch/internal/application/port/output"
	"browser-dispatch/internal/domain/entity"
	"browser-dispatch/internal/infrastructure/htmlclean"

	"github.com/disintegration/imaging"
)

var _ output.BrowserPort = (*Browser)(nil)

var errConnClosed = errors.New("connection closed")

const findPollInterval = 50 * time.Millisecond

type ElementFixture struct {
	Text       string
	HTML       string
	Attributes map[string]string
	// Href makes a click navigate.
	Href string
	// AppearsAfter hides the element until the page has been loaded this long.
	AppearsAfter time.Duration
}

type Page struct {
	Title    string
	HTML     string
	Elements map[string]ElementFixture
}

type Options struct {
	Pages map[string]Page
	// Fallback builds pages for URLs missing from Pages. Defaults to DefaultPage.
	Fallback func(url string) Page
	// Latency is added to every operation and honors context cancellation.
	Latency time.Duration

	ViewportWidth  int
	ViewportHeight int
	PageHeight     int
}

func DefaultOptions() Options {
	return Options{
		ViewportWidth:  1280,
		ViewportHeight: 720,
		PageHeight:     2400,
	}
}

// Op is one recorded backend call.
type Op struct {
	Name  string
	Arg   string
	Start time.Time
	End   time.Time
}

type Browser struct {
	opts Options

	mu           sync.Mutex
	history      []string
	pos          int
	loadedAt     time.Time
	inputs       map[string]string
	ops          []Op
	closed       bool
	disconnected bool
}

func New(opts Options) *Browser {
	def := DefaultOptions()
	if opts.ViewportWidth == 0 {
		opts.ViewportWidth = def.ViewportWidth
	}
	if opts.ViewportHeight == 0 {
		opts.ViewportHeight = def.ViewportHeight
	}
	if opts.PageHeight == 0 {
		opts.PageHeight = def.PageHeight
	}
	if opts.Fallback == nil {
		opts.Fallback = DefaultPage
	}
	return &Browser{
		opts:     opts,
		history:  []string{blankURL},
		loadedAt: time.Now(),
		inputs:   make(map[string]string),
	}
}

// NewFactory returns a factory producing a fresh browser per session.
func NewFactory(opts Options) output.BrowserFactory {
	return func(ctx context.Context) (output.BrowserPort, error) {
		return New(opts), nil
	}
}

// Disconnect simulates the browser process going away.
func (b *Browser) Disconnect() {
	b.mu.Lock()
	b.disconnected = true
	b.mu.Unlock()
}

func (b *Browser) Ops() []Op {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Op(nil), b.ops...)
}

func (b *Browser) URL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history[b.pos]
}

func (b *Browser) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Browser) InputValue(selector string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inputs[selector]
}

// do runs fn under the browser lock after the configured latency and records the call.
func (b *Browser) do(ctx context.Context, name, arg string, fn func() error) error {
	start := time.Now()
	if b.opts.Latency > 0 {
		t := time.NewTimer(b.opts.Latency)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || b.disconnected {
		return fmt.Errorf("%s: %w: %w", name, entity.ErrSessionLost, errConnClosed)
	}
	err := fn()
	b.ops = append(b.ops, Op{Name: name, Arg: arg, Start: start, End: time.Now()})
	return err
}

func (b *Browser) currentPageLocked() Page {
	url := b.history[b.pos]
	if url == blankURL {
		return blankPage()
	}
	if p, ok := b.opts.Pages[url]; ok {
		return p
	}
	return b.opts.Fallback(url)
}

func (b *Browser) loadLocked() {
	b.loadedAt = time.Now()
	b.inputs = make(map[string]string)
}

func (b *Browser) navigateLocked(url string) {
	b.history = append(b.history[:b.pos+1], url)
	b.pos = len(b.history) - 1
	b.loadLocked()
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	return b.do(ctx, "navigate", url, func() error {
		b.navigateLocked(url)
		return nil
	})
}

// Find polls the current page until the selector matches or timeout elapses, as a real
// browser waiting for the DOM would.
func (b *Browser) Find(ctx context.Context, selector string, timeout time.Duration) (output.Element, error) {
	deadline := time.Now().Add(timeout)
	for {
		var (
			fixture ElementFixture
			found   bool
		)
		err := b.do(ctx, "find", selector, func() error {
			fixture, found = b.currentPageLocked().Elements[selector]
			if found && fixture.AppearsAfter > 0 && time.Since(b.loadedAt) < fixture.AppearsAfter {
				found = false
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if found {
			return &element{browser: b, selector: selector, fixture: fixture}, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, &entity.ElementNotFoundError{Selector: selector, Timeout: timeout}
		}
		t := time.NewTimer(min(remaining, findPollInterval))
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		}
	}
}

func (b *Browser) Screenshot(ctx context.Context, fullPage bool) (*entity.Screenshot, error) {
	var shot *entity.Screenshot
	err := b.do(ctx, "screenshot", fmt.Sprintf("full_page=%t", fullPage), func() error {
		w, h := b.opts.ViewportWidth, b.opts.ViewportHeight
		if fullPage {
			h = b.opts.PageHeight
		}
		img := imaging.New(w, h, color.White)

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return fmt.Errorf("png encode failed: %w", err)
		}
		shot = &entity.Screenshot{Data: buf.Bytes(), Format: "png", Width: w, Height: h}
		return nil
	})
	return shot, err
}

func (b *Browser) Back(ctx context.Context) error {
	return b.do(ctx, "back", "", func() error {
		if b.pos > 0 {
			b.pos--
			b.loadLocked()
		}
		return nil
	})
}

func (b *Browser) Forward(ctx context.Context) error {
	return b.do(ctx, "forward", "", func() error {
		if b.pos < len(b.history)-1 {
			b.pos++
			b.loadLocked()
		}
		return nil
	})
}

func (b *Browser) Refresh(ctx context.Context) error {
	return b.do(ctx, "refresh", "", func() error {
		b.loadLocked()
		return nil
	})
}

func (b *Browser) Info(ctx context.Context) (*entity.PageInfo, error) {
	var info *entity.PageInfo
	err := b.do(ctx, "info", "", func() error {
		p := b.currentPageLocked()
		title := p.Title
		if title == "" {
			title = htmlclean.Title(p.HTML)
		}
		info = &entity.PageInfo{URL: b.history[b.pos], Title: title}
		return nil
	})
	return info, err
}

func (b *Browser) Text(ctx context.Context) (string, error) {
	var text string
	err := b.do(ctx, "text", "", func() error {
		text = htmlclean.VisibleText(b.currentPageLocked().HTML)
		return nil
	})
	return text, err
}

func (b *Browser) HTML(ctx context.Context) (string, error) {
	var html string
	err := b.do(ctx, "html", "", func() error {
		html = b.currentPageLocked().HTML
		return nil
	})
	return html, err
}

// Close is idempotent.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

type element struct {
	browser  *Browser
	selector string
	fixture  ElementFixture
}

func (e *element) Selector() string {
	return e.selector
}

func (e *element) Click(ctx context.Context) error {
	return e.browser.do(ctx, "click", e.selector, func() error {
		if e.fixture.Href != "" {
			e.browser.navigateLocked(e.fixture.Href)
		}
		return nil
	})
}

func (e *element) Input(ctx context.Context, text string, clear bool) error {
	return e.browser.do(ctx, "input", e.selector, func() error {
		if clear {
			e.browser.inputs[e.selector] = text
		} else {
			e.browser.inputs[e.selector] += text
		}
		return nil
	})
}

func (e *element) Text(ctx context.Context) (string, error) {
	var text string
	err := e.browser.do(ctx, "element_text", e.selector, func() error {
		text = e.fixture.Text
		if v, ok := e.browser.inputs[e.selector]; ok {
			text = v
		}
		return nil
	})
	return text, err
}

func (e *element) HTML(ctx context.Context) (string, error) {
	var html string
	err := e.browser.do(ctx, "element_html", e.selector, func() error {
		html = e.fixture.HTML
		if html == "" {
			html = "<div>" + e.fixture.Text + "</div>"
		}
		return nil
	})
	return html, err
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := e.browser.do(ctx, "attribute", e.selector+"@"+name, func() error {
		if name == "value" {
			if v, has := e.browser.inputs[e.selector]; has {
				value, ok = v, true
				return nil
			}
		}
		value, ok = e.fixture.Attributes[name]
		return nil
	})
	return value, ok, err
}
