package analysis

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// Report renders a summary as markdown.
func Report(name string, summary *Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Benchmark Analysis: %s\n\n", name)
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total questions | %d |\n", summary.Total)
	fmt.Fprintf(&b, "| Correct | %d (%.1f%%) |\n", summary.Correct, 100*summary.Accuracy)
	fmt.Fprintf(&b, "| Wrong | %d (%.1f%%) |\n\n", summary.Wrong, 100*(1-summary.Accuracy))

	if len(summary.WrongBySource) > 0 {
		b.WriteString("## Wrong answers by source\n\n")
		for _, sc := range summary.WrongBySource {
			fmt.Fprintf(&b, "- **%s**: %d\n", sc.Source, sc.Count)
		}
		b.WriteString("\n")
	}

	if len(summary.WrongSamples) > 0 {
		b.WriteString("## Sample wrong answers\n\n")
		for _, s := range summary.WrongSamples {
			fmt.Fprintf(&b, "**Q:** %s\n\n", truncateText(s.Doc.Question, 200))
			if len(s.Doc.Options) > 0 {
				fmt.Fprintf(&b, "Options: %s\n\n", strings.Join(s.Doc.Options, " | "))
			}
			fmt.Fprintf(&b, "Correct: `%s`, model said: `%s`\n\n---\n\n", s.Doc.Answer, s.ModelAnswer())
		}
	}

	return b.String()
}

// RenderTerminal renders markdown for display, styled when stdout is a
// terminal and plain otherwise. Falls back to the raw markdown on renderer
// errors.
func RenderTerminal(markdown string, isTTY bool) string {
	var style glamour.TermRendererOption
	width := 100
	if isTTY {
		style = glamour.WithStandardStyle("dark")
		if w, _, err := term.GetSize(0); err == nil && w > 20 {
			width = w
		}
	} else {
		style = glamour.WithStandardStyle("notty")
	}

	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return markdown
	}

	out, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
