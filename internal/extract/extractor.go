// Package extract turns a page into a plain-text snapshot of its
// content-bearing, non-interactive elements.
package extract

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ChamsBouzaiene/pagechat/internal/engine"
	"github.com/ChamsBouzaiene/pagechat/internal/page"
)

// DefaultSettle is the wait before reading the page, giving late content time to render.
const DefaultSettle = time.Second

// Snapshot is the extracted state of a page at one moment. It is never persisted.
type Snapshot struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Extractor produces a Snapshot of the current page.
type Extractor interface {
	Extract(ctx context.Context) (Snapshot, error)
}

// DOMExtractor loads a document and walks its parsed tree.
type DOMExtractor struct {
	Loader    page.Loader
	Settle    time.Duration // zero means DefaultSettle; negative disables the wait
	MinLength int           // zero means DefaultMinLen
	Logger    *log.Logger

	mu sync.RWMutex // guards Settle after the first Extract
}

// NewDOMExtractor creates an extractor with default settings.
func NewDOMExtractor(loader page.Loader) *DOMExtractor {
	return &DOMExtractor{Loader: loader}
}

// Extract implements Extractor. Every failure, including a panic while
// walking the document, surfaces as KindNoContent.
func (e *DOMExtractor) Extract(ctx context.Context) (snap Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			snap = Snapshot{}
			err = engine.NewError(engine.KindNoContent, "", fmt.Errorf("extract panic: %v", r))
		}
	}()

	if err := e.settle(ctx); err != nil {
		return Snapshot{}, engine.NewError(engine.KindNoContent, "", err)
	}

	doc, err := e.Loader.Load(ctx)
	if err != nil {
		return Snapshot{}, engine.NewError(engine.KindNoContent, "", err)
	}

	minLen := e.MinLength
	if minLen <= 0 {
		minLen = DefaultMinLen
	}
	snap, err = extractHTML(doc.URL, doc.HTML, minLen)
	if err != nil {
		e.logf("⚠️  No meaningful content on %s", doc.URL)
		return Snapshot{}, err
	}
	e.logf("📄 Extracted %d chars from %s", len([]rune(snap.Content)), snap.URL)
	return snap, nil
}

// SetSettle changes the settle wait of an extractor already in use.
func (e *DOMExtractor) SetSettle(d time.Duration) {
	e.mu.Lock()
	e.Settle = d
	e.mu.Unlock()
}

func (e *DOMExtractor) settle(ctx context.Context) error {
	e.mu.RLock()
	d := e.Settle
	e.mu.RUnlock()
	if d == 0 {
		d = DefaultSettle
	}
	if d < 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *DOMExtractor) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}
