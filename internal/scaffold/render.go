package scaffold

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles renders the generation summary.
type Styles struct {
	Title lipgloss.Style
	Path  lipgloss.Style
	Muted lipgloss.Style
	Hint  lipgloss.Style
}

// DefaultStyles returns the colored styles used on terminals.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7")),
		Path:  lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a")),
		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89")),
		Hint:  lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#e0af68")),
	}
}

// PlainStyles renders without decoration, for pipes and tests.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{Title: plain, Path: plain, Muted: plain, Hint: plain}
}

// Render summarizes result.
func Render(result Result, styles Styles) string {
	var b strings.Builder
	b.WriteString(styles.Title.Render("statekit scaffold"))
	b.WriteString(" ")
	b.WriteString(styles.Muted.Render(result.Dir))
	b.WriteString("\n")
	for _, path := range result.Written {
		b.WriteString("  + ")
		b.WriteString(styles.Path.Render(path))
		b.WriteString("\n")
	}
	for _, kind := range result.Skipped {
		b.WriteString("  - ")
		b.WriteString(styles.Muted.Render(string(kind) + " skipped"))
		b.WriteString("\n")
	}
	if result.ImportPath != "" {
		b.WriteString(styles.Hint.Render("import \"" + result.ImportPath + "\""))
	} else {
		b.WriteString(styles.Hint.Render("no go.mod found in root; import path unknown"))
	}
	b.WriteString("\n")
	return b.String()
}
