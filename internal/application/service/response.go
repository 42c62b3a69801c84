package service

import (
	"sync"

	"browser-dispatch/internal/application/port/output"
	"browser-dispatch/internal/domain/entity"
)

var _ output.ResponseSink = (*ResponseBuilder)(nil)

// ResponseBuilder accumulates the output of one tool execution.
// It is safe for concurrent use because a timed-out tool may keep appending after the dispatcher has moved on.
type ResponseBuilder struct {
	mu        sync.Mutex
	items     []entity.ResponseItem
	finalized bool
}

func NewResponseBuilder() *ResponseBuilder {
	return &ResponseBuilder{}
}

func (b *ResponseBuilder) AddText(text string) error {
	return b.add(entity.TextItem(text))
}

func (b *ResponseBuilder) AddBinary(data []byte, mediaType string) error {
	return b.add(entity.BinaryItem(append([]byte(nil), data...), mediaType))
}

func (b *ResponseBuilder) add(item entity.ResponseItem) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finalized {
		return entity.ErrFinalized
	}
	b.items = append(b.items, item)
	return nil
}

// Collect finalizes the builder and returns the items in call order.
func (b *ResponseBuilder) Collect() ([]entity.ResponseItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finalized {
		return nil, entity.ErrFinalized
	}
	b.finalized = true

	items := b.items
	b.items = nil
	if items == nil {
		items = []entity.ResponseItem{}
	}
	return items, nil
}

// finalize discards anything appended so far. Used when the dispatch fails.
func (b *ResponseBuilder) finalize() {
	b.mu.Lock()
	b.finalized = true
	b.items = nil
	b.mu.Unlock()
}
