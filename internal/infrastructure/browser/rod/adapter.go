package rod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"
	"time"

	"browser-dispatch/internal/application/port/output"
	"browser-dispatch/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

const (
	defaultSlowMotion         = 0
	defaultTimeout            = 10 * time.Second
	defaultScreenshotMaxWidth = 1920
	navigationIdleTimeout     = 5 * time.Second
)

var (
	ErrBrowserNotConnected = fmt.Errorf("browser not connected: %w", entity.ErrSessionLost)
	ErrInvalidSelector     = errors.New("invalid selector")
)

type BrowserConfig struct {
	Headless   bool
	SlowMotion time.Duration
	Timeout    time.Duration
	NoSandbox  bool
	DevTools   bool
	// BinPath overrides the browser binary; empty lets the launcher find or download one.
	BinPath string
	// ScreenshotMaxWidth downsizes wider captures. Zero disables resizing.
	ScreenshotMaxWidth int
	// JPEGQuality switches captures to JPEG when > 0. PNG otherwise.
	JPEGQuality int
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:           true,
		SlowMotion:         defaultSlowMotion,
		Timeout:            defaultTimeout,
		ScreenshotMaxWidth: defaultScreenshotMaxWidth,
	}
}

type BrowserAdapter struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	closed   bool

	timeout     time.Duration
	maxWidth    int
	jpegQuality int
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	if ctx != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	// The launcher is deliberately not bound to ctx: the session outlives the call that opened it.
	l := launcher.New().
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox)
	if cfg.BinPath != "" {
		l = l.Bin(cfg.BinPath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(controlURL).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &BrowserAdapter{
		browser:     browser,
		launcher:    l,
		page:        page,
		timeout:     cfg.Timeout,
		maxWidth:    cfg.ScreenshotMaxWidth,
		jpegQuality: cfg.JPEGQuality,
	}, nil
}

// NewFactory launches a new Chrome per session.
func NewFactory(cfg BrowserConfig) output.BrowserFactory {
	return func(ctx context.Context) (output.BrowserPort, error) {
		return NewBrowserAdapter(ctx, cfg)
	}
}

func (b *BrowserAdapter) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed && b.page != nil
}

func (b *BrowserAdapter) activePage(ctx context.Context) (*rod.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBrowserNotConnected
	}
	return b.page.Context(ctx), nil
}

// wrap classifies a rod error, probing the browser to tell page errors from a dead connection.
func (b *BrowserAdapter) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, versionErr := (proto.BrowserGetVersion{}).Call(b.browser); versionErr != nil {
		return fmt.Errorf("%s: %w: %v", op, entity.ErrSessionLost, err)
	}
	return fmt.Errorf("%s failed: %w", op, err)
}

func (b *BrowserAdapter) Navigate(ctx context.Context, url string) error {
	page, err := b.activePage(ctx)
	if err != nil {
		return err
	}
	if err := page.Navigate(url); err != nil {
		return b.wrap("navigation", err)
	}
	if err := page.WaitLoad(); err != nil {
		return b.wrap("wait load", err)
	}
	_ = page.WaitIdle(navigationIdleTimeout)
	return nil
}

func (b *BrowserAdapter) Find(ctx context.Context, selector string, timeout time.Duration) (output.Element, error) {
	if strings.TrimSpace(selector) == "" {
		return nil, ErrInvalidSelector
	}
	page, err := b.activePage(ctx)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = b.timeout
	}

	p := page.Timeout(timeout)
	var el *rod.Element
	if isXPathSelector(selector) {
		el, err = p.ElementX(strings.TrimPrefix(selector, "xpath="))
	} else {
		el, err = p.Element(selector)
	}
	if err != nil {
		var notFound *rod.ElementNotFoundError
		if errors.As(err, &notFound) || (errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil) {
			return nil, &entity.ElementNotFoundError{Selector: selector, Timeout: timeout}
		}
		return nil, b.wrap("find "+selector, err)
	}

	return &element{adapter: b, el: el.CancelTimeout(), selector: selector}, nil
}

func (b *BrowserAdapter) Screenshot(ctx context.Context, fullPage bool) (*entity.Screenshot, error) {
	page, err := b.activePage(ctx)
	if err != nil {
		return nil, err
	}

	req := &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng}
	format, encodeFormat := "png", imaging.PNG
	var encodeOpts []imaging.EncodeOption
	if b.jpegQuality > 0 {
		req.Format = proto.PageCaptureScreenshotFormatJpeg
		req.Quality = gson.Int(b.jpegQuality)
		format, encodeFormat = "jpeg", imaging.JPEG
		encodeOpts = append(encodeOpts, imaging.JPEGQuality(b.jpegQuality))
	}

	raw, err := page.Screenshot(fullPage, req)
	if err != nil {
		return nil, b.wrap("screenshot", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if b.maxWidth <= 0 || img.Bounds().Dx() <= b.maxWidth {
		return &entity.Screenshot{
			Data:   raw,
			Format: format,
			Width:  img.Bounds().Dx(),
			Height: img.Bounds().Dy(),
		}, nil
	}

	resized := imaging.Resize(img, b.maxWidth, 0, imaging.Lanczos)
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, resized, encodeFormat, encodeOpts...); err != nil {
		return nil, fmt.Errorf("%s encode failed: %w", format, err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: format,
		Width:  resized.Bounds().Dx(),
		Height: resized.Bounds().Dy(),
	}, nil
}

func (b *BrowserAdapter) Back(ctx context.Context) error {
	page, err := b.activePage(ctx)
	if err != nil {
		return err
	}
	if err := page.NavigateBack(); err != nil {
		return b.wrap("back", err)
	}
	_ = page.WaitIdle(navigationIdleTimeout)
	return nil
}

func (b *BrowserAdapter) Forward(ctx context.Context) error {
	page, err := b.activePage(ctx)
	if err != nil {
		return err
	}
	if err := page.NavigateForward(); err != nil {
		return b.wrap("forward", err)
	}
	_ = page.WaitIdle(navigationIdleTimeout)
	return nil
}

func (b *BrowserAdapter) Refresh(ctx context.Context) error {
	page, err := b.activePage(ctx)
	if err != nil {
		return err
	}
	if err := page.Reload(); err != nil {
		return b.wrap("refresh", err)
	}
	if err := page.WaitLoad(); err != nil {
		return b.wrap("wait load", err)
	}
	return nil
}

func (b *BrowserAdapter) Info(ctx context.Context) (*entity.PageInfo, error) {
	page, err := b.activePage(ctx)
	if err != nil {
		return nil, err
	}
	info, err := page.Info()
	if err != nil {
		return nil, b.wrap("page info", err)
	}
	return &entity.PageInfo{URL: info.URL, Title: info.Title}, nil
}

func (b *BrowserAdapter) Text(ctx context.Context) (string, error) {
	page, err := b.activePage(ctx)
	if err != nil {
		return "", err
	}
	body, err := page.Timeout(b.timeout).Element("body")
	if err != nil {
		return "", b.wrap("body", err)
	}
	text, err := body.Text()
	if err != nil {
		return "", b.wrap("page text", err)
	}
	return text, nil
}

func (b *BrowserAdapter) HTML(ctx context.Context) (string, error) {
	page, err := b.activePage(ctx)
	if err != nil {
		return "", err
	}
	html, err := page.HTML()
	if err != nil {
		return "", b.wrap("page html", err)
	}
	return html, nil
}

// CurrentURL returns "" once the adapter is closed.
func (b *BrowserAdapter) CurrentURL() string {
	info, err := b.Info(context.Background())
	if err != nil {
		return ""
	}
	return info.URL
}

func (b *BrowserAdapter) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
	return err
}

type element struct {
	adapter  *BrowserAdapter
	el       *rod.Element
	selector string
}

func (e *element) Selector() string {
	return e.selector
}

func (e *element) bind(ctx context.Context) (*rod.Element, error) {
	if !e.adapter.IsReady() {
		return nil, ErrBrowserNotConnected
	}
	return e.el.Context(ctx), nil
}

func (e *element) Click(ctx context.Context) error {
	el, err := e.bind(ctx)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return e.adapter.wrap("click "+e.selector, err)
	}
	return nil
}

func (e *element) Input(ctx context.Context, text string, clear bool) error {
	el, err := e.bind(ctx)
	if err != nil {
		return err
	}
	if clear {
		if err := el.SelectAllText(); err == nil {
			_ = el.Input("")
		}
	}
	if err := el.Input(text); err != nil {
		return e.adapter.wrap("input "+e.selector, err)
	}
	return nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	el, err := e.bind(ctx)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", e.adapter.wrap("text "+e.selector, err)
	}
	return text, nil
}

func (e *element) HTML(ctx context.Context) (string, error) {
	el, err := e.bind(ctx)
	if err != nil {
		return "", err
	}
	html, err := el.HTML()
	if err != nil {
		return "", e.adapter.wrap("html "+e.selector, err)
	}
	return html, nil
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	el, err := e.bind(ctx)
	if err != nil {
		return "", false, err
	}
	value, err := el.Attribute(name)
	if err != nil {
		return "", false, e.adapter.wrap("attribute "+name, err)
	}
	return pointerToString(value), value != nil, nil
}

func isXPathSelector(selector string) bool {
	return strings.HasPrefix(selector, "/") ||
		strings.HasPrefix(selector, "(/") ||
		strings.HasPrefix(selector, "xpath=")
}

func pointerToString(s *string) string {
	if s != nil {
		return *s
	}
	return ""
}
