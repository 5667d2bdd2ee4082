package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"reportcard-analyzer/internal/analysis"
)

const accent = lipgloss.Color("#e60000")

// Terminal writes the view outcome as styled text.
// Feedback is only shown when nothing is loading and there is no error.
func Terminal(w io.Writer, st analysis.State) error {
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true).Foreground(accent)
	heading := r.NewStyle().Bold(true)
	errStyle := r.NewStyle().Foreground(lipgloss.Color("9"))

	var b strings.Builder
	switch {
	case st.Loading:
		b.WriteString("Loading...\n")
	case st.Error != "":
		b.WriteString(errStyle.Render(st.Error))
		b.WriteString("\n")
	case st.Feedback != nil:
		fb := st.Feedback
		b.WriteString(title.Render("AI Feedback"))
		b.WriteString("\n")
		if fb.IsText() {
			b.WriteString(fb.Text)
			b.WriteString("\n")
			break
		}
		writeList(&b, heading, "Strengths:", fb.Strengths)
		writeList(&b, heading, "Areas for Improvement:", fb.AreasForImprovement)
		if len(fb.SpecificSkills) > 0 {
			writeList(&b, heading, "Specific Skills:", fb.SpecificSkills)
		}
		if fb.HistoricalProgress != "" {
			b.WriteString(heading.Render("Progress from Previous Years:"))
			b.WriteString("\n")
			b.WriteString(fb.HistoricalProgress)
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("write terminal output: %w", err)
	}
	return nil
}

func writeList(b *strings.Builder, heading lipgloss.Style, label string, items []string) {
	b.WriteString(heading.Render(label))
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString("  • ")
		b.WriteString(item)
		b.WriteString("\n")
	}
}
