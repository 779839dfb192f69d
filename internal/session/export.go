package session

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Export is the serialized form of a session log.
type Export struct {
	SessionID string `json:"session_id" yaml:"session_id"`
	Turns     []Turn `json:"turns" yaml:"turns"`
}

// Exporter writes a session log in one format.
type Exporter interface {
	Export(e Export, w io.Writer) error
}

// NewExporter returns the exporter for format.
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "", "text":
		return textExporter{}, nil
	case "json":
		return jsonExporter{}, nil
	case "yaml", "yml":
		return yamlExporter{}, nil
	case "md", "markdown":
		return markdownExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: text, json, yaml, md)", format)
	}
}

type textExporter struct{}

func (textExporter) Export(e Export, w io.Writer) error {
	if len(e.Turns) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w, RenderHistory(e.Turns))
	return err
}

type jsonExporter struct{}

func (jsonExporter) Export(e Export, w io.Writer) error {
	if e.Turns == nil {
		e.Turns = []Turn{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

type yamlExporter struct{}

func (yamlExporter) Export(e Export, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()
	return enc.Encode(e)
}

type markdownExporter struct{}

func (markdownExporter) Export(e Export, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Session %s\n\n", e.SessionID)
	_, _ = fmt.Fprintf(w, "**Turns:** %d\n\n", len(e.Turns))

	for _, t := range e.Turns {
		_, _ = fmt.Fprintf(w, "---\n\n**%s** (%s)\n\n%s\n\n", t.Role, t.Timestamp.Format("2006-01-02 15:04:05"), escapeMarkdown(t.Content))
	}
	return nil
}

// escapeMarkdown escapes emphasis markers outside fenced code blocks.
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	inCode := false
	for i, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCode = !inCode
			continue
		}
		if inCode {
			continue
		}
		line = strings.ReplaceAll(line, "**", "\\*\\*")
		lines[i] = strings.ReplaceAll(line, "__", "\\_\\_")
	}
	return strings.Join(lines, "\n")
}
