package extract

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ChamsBouzaiene/pagechat/internal/engine"
)

// Defaults applied when the document lacks metadata.
const (
	UnknownURL    = "Unknown URL"
	UntitledPage  = "Untitled Page"
	DefaultMinLen = 30
)

var contentTags = map[atom.Atom]bool{
	atom.Main: true, atom.Article: true, atom.Section: true, atom.Div: true,
	atom.P: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true,
}

var interactiveTags = map[atom.Atom]bool{
	atom.Button: true, atom.A: true, atom.Input: true, atom.Textarea: true,
}

// Elements that start a new line in rendered text.
var blockTags = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Dd: true, atom.Details: true, atom.Dialog: true, atom.Div: true,
	atom.Dl: true, atom.Dt: true, atom.Fieldset: true, atom.Figcaption: true,
	atom.Figure: true, atom.Footer: true, atom.Form: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true,
	atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true, atom.Ol: true,
	atom.P: true, atom.Pre: true, atom.Section: true, atom.Summary: true,
	atom.Table: true, atom.Tr: true, atom.Ul: true,
}

var hiddenStylePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)display\s*:\s*none`),
	regexp.MustCompile(`(?i)visibility\s*:\s*hidden`),
}

// ExtractHTML reads a snapshot out of raw HTML using the default minimum length.
func ExtractHTML(pageURL string, data []byte) (Snapshot, error) {
	return extractHTML(pageURL, data, DefaultMinLen)
}

func extractHTML(pageURL string, data []byte, minLen int) (Snapshot, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return Snapshot{}, engine.NewError(engine.KindNoContent, engine.MsgNoContent, err)
	}

	var blocks []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if isInteractive(n) || isHidden(n) {
				return
			}
			if contentTags[n.DataAtom] {
				if text := visibleText(n); utf8.RuneCountInString(text) > minLen {
					blocks = append(blocks, text)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(blocks) == 0 {
		return Snapshot{}, engine.NewError(engine.KindNoContent, engine.MsgNoContent, nil)
	}

	snap := Snapshot{
		URL:     pageURL,
		Title:   findTitle(doc),
		Content: strings.Join(blocks, "\n\n"),
	}
	if snap.URL == "" {
		snap.URL = UnknownURL
	}
	if snap.Title == "" {
		snap.Title = UntitledPage
	}
	return snap, nil
}

// isInteractive matches button, a, input, textarea, [role='button'] and [onclick].
// Subtrees below a match are never visited, which covers the ancestor case.
func isInteractive(n *html.Node) bool {
	if interactiveTags[n.DataAtom] {
		return true
	}
	for _, a := range n.Attr {
		if a.Namespace != "" {
			continue
		}
		if a.Key == "onclick" || (a.Key == "role" && a.Val == "button") {
			return true
		}
	}
	return false
}

// isHidden reports subtrees that render no text.
func isHidden(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head:
		return true
	}
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "style":
			for _, pat := range hiddenStylePatterns {
				if pat.MatchString(a.Val) {
					return true
				}
			}
		}
	}
	return false
}

// visibleText approximates innerText: block boundaries become line breaks,
// whitespace runs within a line collapse to one space. Link and button
// labels inside n are kept.
func visibleText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if isHidden(n) {
				return
			}
			switch n.DataAtom {
			case atom.Td, atom.Th:
				sb.WriteByte(' ')
			}
			if blockTags[n.DataAtom] {
				sb.WriteByte('\n')
				defer sb.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			lines = append(lines, strings.Join(fields, " "))
		}
	}
	return strings.Join(lines, "\n")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
		}
		return strings.Join(strings.Fields(sb.String()), " ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
