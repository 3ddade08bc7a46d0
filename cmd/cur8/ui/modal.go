package ui

import (
	"cur8/internal/curation"

	"github.com/charmbracelet/lipgloss"
)

// RenderModal frames body under a title. width <= 0 lets the content size
// the box.
func RenderModal(s Styles, title, body string, width int) string {
	style := s.Modal
	if width > 0 {
		style = style.Width(width)
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(title),
		"",
		body,
		"",
		s.Muted.Render("esc to close"),
	)
	return style.Render(content)
}

// RenderNotice renders a status notice with a level marker.
func RenderNotice(s Styles, n curation.Notice) string {
	switch n.Level {
	case curation.LevelSuccess:
		return s.Success.Render("✓ " + n.Message)
	case curation.LevelWarning:
		return s.Warning.Render("! " + n.Message)
	case curation.LevelError:
		return s.Error.Render("✗ " + n.Message)
	}
	return s.Info.Render("• " + n.Message)
}
