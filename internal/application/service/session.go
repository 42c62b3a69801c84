package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"browser-dispatch/internal/application/port/input"
	"browser-dispatch/internal/application/port/output"
	"browser-dispatch/internal/domain/entity"
)

var _ input.SessionControl = (*Session)(nil)

// ErrLeaseRevoked is returned to a tool that keeps using the browser after its dispatch timed out.
var ErrLeaseRevoked = errors.New("session lease revoked")

type sessionState int

const (
	sessionIdle sessionState = iota
	sessionOpen
	sessionClosed
)

func (s sessionState) String() string {
	switch s {
	case sessionIdle:
		return "idle"
	case sessionOpen:
		return "open"
	default:
		return "closed"
	}
}

// DefaultDrainGrace bounds how long a revoked lease keeps the lock while its backend calls finish.
const DefaultDrainGrace = 2 * time.Second

type SessionOption func(*Session)

// WithDrainGrace sets how long the next caller waits for backend calls of a timed-out tool.
// Zero releases the lock immediately.
func WithDrainGrace(d time.Duration) SessionOption {
	return func(s *Session) {
		s.drainGrace = d
	}
}

// Session is the execution context: it owns the single live browser and serializes access to it.
type Session struct {
	factory    output.BrowserFactory
	logger     output.LoggerPort
	drainGrace time.Duration

	// lock is held by exactly one lease at a time.
	lock chan struct{}

	mu         sync.Mutex
	browser    output.BrowserPort
	state      sessionState
	generation uint64
}

func NewSession(factory output.BrowserFactory, logger output.LoggerPort, opts ...SessionOption) *Session {
	s := &Session{
		factory:    factory,
		logger:     logger.WithField("component", "session"),
		drainGrace: DefaultDrainGrace,
		lock:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts a browser if none is live. It also reopens a context closed by Cleanup or session loss.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == sessionOpen {
		return nil
	}
	return s.openLocked(ctx)
}

func (s *Session) openLocked(ctx context.Context) error {
	browser, err := s.factory(ctx)
	if err != nil {
		return fmt.Errorf("open browser session: %w", err)
	}
	s.browser = browser
	s.state = sessionOpen
	s.generation++
	s.logger.Info("Session opened", "generation", s.generation)
	return nil
}

// Cleanup releases the browser. Calling it again is a no-op.
func (s *Session) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == sessionClosed {
		return nil
	}
	s.state = sessionClosed
	return s.closeBrowserLocked()
}

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == sessionOpen
}

func (s *Session) closeBrowserLocked() error {
	browser := s.browser
	s.browser = nil
	if browser == nil {
		return nil
	}
	s.logger.Info("Session closed", "generation", s.generation)
	if err := browser.Close(); err != nil {
		return fmt.Errorf("close browser session: %w", err)
	}
	return nil
}

// markLost closes the context after the backend reported a disconnection.
// It ignores stale generations so a late report cannot close a freshly reopened session.
func (s *Session) markLost(generation uint64, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != sessionOpen || s.generation != generation {
		return
	}
	s.logger.Warn("Session lost", "generation", generation, "error", cause)
	s.state = sessionClosed
	if err := s.closeBrowserLocked(); err != nil {
		s.logger.Debug("Close after session loss failed", "error", err)
	}
}

// Acquire waits for exclusive access and returns a lease over the live browser.
// An idle context is opened on the way.
func (s *Session) Acquire(ctx context.Context) (*Lease, error) {
	select {
	case s.lock <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case sessionClosed:
		<-s.lock
		return nil, entity.ErrContextClosed
	case sessionIdle:
		if err := s.openLocked(ctx); err != nil {
			<-s.lock
			return nil, err
		}
	}

	return &Lease{
		session:    s,
		browser:    s.browser,
		generation: s.generation,
		drained:    make(chan struct{}),
	}, nil
}

var _ output.BrowserPort = (*Lease)(nil)

// Lease is a tool's view of the browser for the duration of one execution.
// It counts backend calls in flight so a revoked lease can hand over the lock once they finish.
type Lease struct {
	session    *Session
	browser    output.BrowserPort
	generation uint64

	mu       sync.Mutex
	revoked  bool
	draining bool
	inflight int
	drained  chan struct{}

	unlock sync.Once
}

// Release gives the exclusive lock back. Safe to call more than once. After revoke the lock
// is handed over by the drain instead.
func (l *Lease) Release() {
	l.mu.Lock()
	l.revoked = true
	draining := l.draining
	l.mu.Unlock()
	if !draining {
		l.releaseLock()
	}
}

// revoke stops the lease from starting new backend calls. The lock is released when the calls
// already in flight return, or after the session's drain grace, whichever comes first.
func (l *Lease) revoke() {
	grace := l.session.drainGrace

	l.mu.Lock()
	l.revoked = true
	draining := l.inflight > 0 && grace > 0
	l.draining = draining
	l.mu.Unlock()

	if !draining {
		l.releaseLock()
		return
	}

	go func() {
		t := time.NewTimer(grace)
		defer t.Stop()
		select {
		case <-l.drained:
		case <-t.C:
			l.session.logger.Warn("Backend call still running after drain grace, releasing lock",
				"generation", l.generation, "grace", grace.String())
		}
		l.releaseLock()
	}()
}

func (l *Lease) releaseLock() {
	l.unlock.Do(func() {
		<-l.session.lock
	})
}

func (l *Lease) Generation() uint64 {
	return l.generation
}

// begin registers a backend call. Every successful begin must be paired with end.
func (l *Lease) begin() (output.BrowserPort, error) {
	l.mu.Lock()
	if l.revoked {
		l.mu.Unlock()
		return nil, ErrLeaseRevoked
	}
	l.inflight++
	l.mu.Unlock()

	s := l.session
	s.mu.Lock()
	live := s.state == sessionOpen && s.generation == l.generation
	s.mu.Unlock()
	if !live {
		l.end()
		return nil, entity.ErrContextClosed
	}
	return l.browser, nil
}

func (l *Lease) end() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inflight--
	if l.revoked && l.inflight == 0 {
		select {
		case <-l.drained:
		default:
			close(l.drained)
		}
	}
}

func (l *Lease) call(fn func(b output.BrowserPort) error) error {
	b, err := l.begin()
	if err != nil {
		return err
	}
	defer l.end()
	return fn(b)
}

func (l *Lease) Navigate(ctx context.Context, url string) error {
	return l.call(func(b output.BrowserPort) error {
		return b.Navigate(ctx, url)
	})
}

func (l *Lease) Find(ctx context.Context, selector string, timeout time.Duration) (output.Element, error) {
	var el output.Element
	err := l.call(func(b output.BrowserPort) (err error) {
		el, err = b.Find(ctx, selector, timeout)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &leasedElement{lease: l, el: el}, nil
}

func (l *Lease) Screenshot(ctx context.Context, fullPage bool) (*entity.Screenshot, error) {
	var shot *entity.Screenshot
	err := l.call(func(b output.BrowserPort) (err error) {
		shot, err = b.Screenshot(ctx, fullPage)
		return err
	})
	return shot, err
}

func (l *Lease) Back(ctx context.Context) error {
	return l.call(func(b output.BrowserPort) error { return b.Back(ctx) })
}

func (l *Lease) Forward(ctx context.Context) error {
	return l.call(func(b output.BrowserPort) error { return b.Forward(ctx) })
}

func (l *Lease) Refresh(ctx context.Context) error {
	return l.call(func(b output.BrowserPort) error { return b.Refresh(ctx) })
}

func (l *Lease) Info(ctx context.Context) (*entity.PageInfo, error) {
	var info *entity.PageInfo
	err := l.call(func(b output.BrowserPort) (err error) {
		info, err = b.Info(ctx)
		return err
	})
	return info, err
}

func (l *Lease) Text(ctx context.Context) (string, error) {
	var text string
	err := l.call(func(b output.BrowserPort) (err error) {
		text, err = b.Text(ctx)
		return err
	})
	return text, err
}

func (l *Lease) HTML(ctx context.Context) (string, error) {
	var html string
	err := l.call(func(b output.BrowserPort) (err error) {
		html, err = b.HTML(ctx)
		return err
	})
	return html, err
}

// Close is refused: the session, not the tool, owns the browser.
func (l *Lease) Close() error {
	return errors.New("browser is owned by the execution context")
}

type leasedElement struct {
	lease *Lease
	el    output.Element
}

func (e *leasedElement) Selector() string {
	return e.el.Selector()
}

func (e *leasedElement) Click(ctx context.Context) error {
	return e.lease.call(func(output.BrowserPort) error { return e.el.Click(ctx) })
}

func (e *leasedElement) Input(ctx context.Context, text string, clear bool) error {
	return e.lease.call(func(output.BrowserPort) error { return e.el.Input(ctx, text, clear) })
}

func (e *leasedElement) Text(ctx context.Context) (string, error) {
	var text string
	err := e.lease.call(func(output.BrowserPort) (err error) {
		text, err = e.el.Text(ctx)
		return err
	})
	return text, err
}

func (e *leasedElement) HTML(ctx context.Context) (string, error) {
	var html string
	err := e.lease.call(func(output.BrowserPort) (err error) {
		html, err = e.el.HTML(ctx)
		return err
	})
	return html, err
}

func (e *leasedElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := e.lease.call(func(output.BrowserPort) (err error) {
		value, ok, err = e.el.Attribute(ctx, name)
		return err
	})
	return value, ok, err
}
