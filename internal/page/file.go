package page

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileLoader reads a saved HTML file from disk on every Load.
type FileLoader struct {
	Path string
}

// Load implements Loader. The document URL is the file:// form of Path.
func (f FileLoader) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("page: read %s: %w", f.Path, err)
	}
	abs, err := filepath.Abs(f.Path)
	if err != nil {
		abs = f.Path
	}
	return &Document{URL: "file://" + filepath.ToSlash(abs), HTML: data}, nil
}
