package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rbright/hark/internal/router"
)

// renderer styles outcomes for a terminal; non-TTY writers get plain text.
type renderer struct {
	executed  lipgloss.Style
	failed    lipgloss.Style
	unmatched lipgloss.Style
	faint     lipgloss.Style
	prompt    lipgloss.Style
}

func newRenderer(w io.Writer) renderer {
	re := lipgloss.NewRenderer(w)
	return renderer{
		executed:  re.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		failed:    re.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		unmatched: re.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		faint:     re.NewStyle().Faint(true),
		prompt:    re.NewStyle().Foreground(lipgloss.Color("6")),
	}
}

func (rn renderer) outcome(w io.Writer, out router.Outcome) {
	var mark string
	switch out.Kind {
	case router.KindExecuted:
		mark = rn.executed.Render("✓")
	case router.KindFailed:
		mark = rn.failed.Render("✗")
	default:
		mark = rn.unmatched.Render("?")
	}

	message := out.Message
	if message == "" && out.Typed != "" {
		message = fmt.Sprintf("Typed %q", out.Typed)
	}
	fmt.Fprintf(w, "%s %s\n", mark, message)

	if len(out.Suggestions) > 0 {
		fmt.Fprintf(w, "  %s %s\n", rn.faint.Render("try:"), strings.Join(out.Suggestions, ", "))
	}
	if out.Tip != "" {
		fmt.Fprintf(w, "  %s %s\n", rn.faint.Render("tip:"), out.Tip)
	}
}
