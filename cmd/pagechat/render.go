package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/ChamsBouzaiene/pagechat/internal/chat"
	"github.com/ChamsBouzaiene/pagechat/internal/engine"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1).
			MarginBottom(1)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true).
			Padding(0, 1)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Padding(0, 1)

	contentStyle = lipgloss.NewStyle().
			Padding(0, 2).
			MarginBottom(1)
)

func renderHeader(w io.Writer, title, meta string) {
	fmt.Fprintln(w, headerStyle.Render(title))
	if meta != "" {
		fmt.Fprintln(w, metaStyle.Render(meta))
	}
}

func renderBubble(w io.Writer, b chat.Bubble) {
	if b.Error {
		fmt.Fprintln(w, errorStyle.Render(b.Text))
		return
	}
	label := userStyle.Render("You")
	if b.Role == engine.RoleAssistant {
		label = assistantStyle.Render("Assistant")
	}
	fmt.Fprintln(w, label)
	fmt.Fprintln(w, contentStyle.Render(b.Text))
}
