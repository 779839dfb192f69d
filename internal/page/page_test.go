package page

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestHTTPLoader(t *testing.T) {
	var ua string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		ua = r.Header.Get("User-Agent")
		io.WriteString(w, "<html><body><p>hello</p></body></html>")
	}))
	defer server.Close()

	l := NewHTTPLoader(server.URL+"/old", WithClient(server.Client()), WithUserAgent("test-agent"), WithLogger(quietLogger()))
	doc, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !strings.Contains(string(doc.HTML), "<p>hello</p>") {
		t.Errorf("unexpected body %q", doc.HTML)
	}
	if doc.URL != server.URL+"/new" {
		t.Errorf("expected final URL after redirect, got %s", doc.URL)
	}
	if ua != "test-agent" {
		t.Errorf("expected user agent to be sent, got %q", ua)
	}
}

func TestHTTPLoaderErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	l := NewHTTPLoader(server.URL, WithClient(server.Client()), WithLogger(quietLogger()))
	if _, err := l.Load(context.Background()); err == nil {
		t.Error("expected error for 404")
	}

	if _, err := NewHTTPLoader("").Load(context.Background()); !errors.Is(err, ErrNoURL) {
		t.Errorf("expected ErrNoURL, got %v", err)
	}
}

func TestFileLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte("<title>T</title>"), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := FileLoader{Path: path}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(doc.HTML) != "<title>T</title>" {
		t.Errorf("unexpected html %q", doc.HTML)
	}
	if !strings.HasPrefix(doc.URL, "file://") {
		t.Errorf("expected file URL, got %s", doc.URL)
	}

	if _, err := (FileLoader{Path: filepath.Join(t.TempDir(), "missing.html")}).Load(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestStaticLoaderHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (StaticLoader{HTML: []byte("x")}).Load(ctx); err == nil {
		t.Error("expected canceled context to fail")
	}
}

func TestBrowserCloseWithoutChrome(t *testing.T) {
	b := NewBrowser("", log.New(io.Discard, "", 0))
	tab := NewBrowserLoader(b, "https://example.com")

	if err := tab.Close(); err != nil {
		t.Errorf("closing an unopened tab should be a no-op, got %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("closing an unconnected browser should succeed, got %v", err)
	}
	if _, err := tab.Load(context.Background()); err == nil {
		t.Error("expected Load on a closed browser to fail")
	}
}
