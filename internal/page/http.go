package page

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// maxBodyBytes caps a single page download.
const maxBodyBytes = 10 << 20

// DefaultUserAgent is sent by HTTPLoader unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (compatible; pagechat/1.0)"

// HTTPLoader GETs a URL on every Load. No JavaScript runs, so it suits
// server-rendered pages.
type HTTPLoader struct {
	url    string
	client *http.Client
	ua     string
	logger *log.Logger
}

// HTTPOption configures an HTTPLoader.
type HTTPOption func(*HTTPLoader)

// WithClient sets a custom HTTP client.
func WithClient(c *http.Client) HTTPOption {
	return func(l *HTTPLoader) { l.client = c }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(l *HTTPLoader) {
		if ua != "" {
			l.ua = ua
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(lg *log.Logger) HTTPOption {
	return func(l *HTTPLoader) { l.logger = lg }
}

// NewHTTPLoader creates a loader for pageURL.
func NewHTTPLoader(pageURL string, opts ...HTTPOption) *HTTPLoader {
	l := &HTTPLoader{
		url:    pageURL,
		client: &http.Client{Timeout: 30 * time.Second},
		ua:     DefaultUserAgent,
		logger: log.Default(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load implements Loader.
func (l *HTTPLoader) Load(ctx context.Context) (*Document, error) {
	if l.url == "" {
		return nil, ErrNoURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("page: new request: %w", err)
	}
	req.Header.Set("User-Agent", l.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("page: get %s: %w", l.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("page: get %s: http %d", l.url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("page: read body: %w", err)
	}

	// Report the post-redirect location, as a tab would.
	finalURL := l.url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	l.logger.Printf("🌐 Fetched %s (%d bytes)", finalURL, len(body))
	return &Document{URL: finalURL, HTML: body}, nil
}
