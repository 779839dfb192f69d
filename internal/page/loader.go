// Package page loads the HTML document a conversation is about. Loaders
// stand in for the live tab the extractor reads from.
package page

import (
	"context"
	"errors"
)

// Document is one read of a page.
type Document struct {
	URL  string
	HTML []byte
}

// Loader returns the current state of a page. Each call reads afresh.
type Loader interface {
	Load(ctx context.Context) (*Document, error)
}

// ErrNoURL is returned by loaders that were constructed without a target.
var ErrNoURL = errors.New("page: no URL configured")

// StaticLoader serves fixed HTML. Useful in tests and for pasted documents.
type StaticLoader struct {
	URL  string
	HTML []byte
}

// Load implements Loader.
func (s StaticLoader) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Document{URL: s.URL, HTML: s.HTML}, nil
}
