package page

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// Browser owns a headless Chrome, launched locally or reached over a
// DevTools WebSocket. It connects lazily on first use.
type Browser struct {
	remoteURL string
	logger    *log.Logger

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewBrowser creates a browser manager. An empty remoteURL launches a local Chrome.
func NewBrowser(remoteURL string, logger *log.Logger) *Browser {
	if logger == nil {
		logger = log.Default()
	}
	return &Browser{remoteURL: remoteURL, logger: logger}
}

// Connect returns the rod handle, starting Chrome if needed.
func (b *Browser) Connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("browser: closed")
	}
	if b.browser != nil {
		return b.browser, nil
	}

	wsURL := b.remoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		b.lnch = l
		b.logger.Printf("🧭 Launched local Chrome")
	} else {
		b.logger.Printf("🧭 Connecting to remote Chrome at %s", wsURL)
	}

	rb := rod.New().ControlURL(wsURL)
	if err := rb.Connect(); err != nil {
		if b.lnch != nil {
			b.lnch.Kill()
			b.lnch = nil
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	b.browser = rb
	return rb, nil
}

// Close shuts Chrome down. Safe to call more than once.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Kill()
		b.lnch = nil
	}
	return err
}

// BrowserLoader reads the live DOM of a rendered page. The page is opened
// once; later Loads see whatever scripts have done to it since.
type BrowserLoader struct {
	browser *Browser
	url     string

	mu   sync.Mutex
	page *rod.Page
}

// NewBrowserLoader creates a loader for pageURL on browser.
func NewBrowserLoader(browser *Browser, pageURL string) *BrowserLoader {
	return &BrowserLoader{browser: browser, url: pageURL}
}

// Load implements Loader.
func (l *BrowserLoader) Load(ctx context.Context) (*Document, error) {
	if l.url == "" {
		return nil, ErrNoURL
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.page == nil {
		p, err := l.open(ctx)
		if err != nil {
			return nil, err
		}
		l.page = p
	}

	html, err := l.page.Context(ctx).HTML()
	if err != nil {
		return nil, fmt.Errorf("browser: read DOM: %w", err)
	}

	current := l.url
	if info, err := l.page.Info(); err == nil && info.URL != "" {
		current = info.URL
	}
	return &Document{URL: current, HTML: []byte(html)}, nil
}

func (l *BrowserLoader) open(ctx context.Context) (*rod.Page, error) {
	rb, err := l.browser.Connect()
	if err != nil {
		return nil, err
	}

	p, err := stealth.Page(rb)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := p.Context(navCtx).Navigate(l.url); err != nil {
		p.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", l.url, err)
	}
	if err := p.Context(navCtx).WaitLoad(); err != nil {
		l.browser.logger.Printf("⚠️  Wait load for %s: %v", l.url, err)
	}
	return p, nil
}

// Close closes the tab. The Browser stays open.
func (l *BrowserLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.page == nil {
		return nil
	}
	err := l.page.Close()
	l.page = nil
	return err
}
