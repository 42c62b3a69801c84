package output

import (
	"context"
	"time"

	"browser-dispatch/internal/domain/entity"
)

// BrowserPort is the capability set of one live automation session.
// Implementations return entity.ErrSessionLost (wrapped) when the underlying
// browser connection is gone, and *entity.ElementNotFoundError from Find.
type BrowserPort interface {
	Navigate(ctx context.Context, url string) error
	Find(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	Screenshot(ctx context.Context, fullPage bool) (*entity.Screenshot, error)

	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	Refresh(ctx context.Context) error

	Info(ctx context.Context) (*entity.PageInfo, error)
	Text(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)

	Close() error
}

type Element interface {
	Selector() string
	Click(ctx context.Context) error
	Input(ctx context.Context, text string, clear bool) error
	Text(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, bool, error)
}

// BrowserFactory opens a new session. It is called lazily by the execution context.
type BrowserFactory func(ctx context.Context) (BrowserPort, error)
