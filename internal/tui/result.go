package tui

import (
	"fmt"
	"strings"
)

// RenderSuccess renders a success result box with optional detail pairs
func RenderSuccess(title string, details [][2]string) string {
	width := GetTerminalWidth()

	var b strings.Builder
	b.WriteString(SuccessTitleStyle.Render(fmt.Sprintf("%s %s", SuccessMarker, title)))
	if len(details) > 0 {
		b.WriteString("\n\n")
		b.WriteString(RenderKeyValues(details))
	}

	return SuccessBoxStyle(width).Render(b.String())
}

// RenderError renders an error result box with optional hint lines
func RenderError(title string, err error, hints []string) string {
	width := GetTerminalWidth()

	var b strings.Builder
	b.WriteString(ErrorTitleStyle.Render(fmt.Sprintf("%s %s", FailureMarker, title)))
	if err != nil {
		b.WriteString("\n\n")
		b.WriteString(ErrorMessageStyle.Render(err.Error()))
	}
	if len(hints) > 0 {
		b.WriteString("\n\n")
		b.WriteString(MutedStyle.Render("Troubleshooting:"))
		for _, hint := range hints {
			b.WriteString("\n")
			b.WriteString(MutedStyle.Render("  • " + hint))
		}
	}

	return ErrorBoxStyle(width).Render(b.String())
}

// RenderWarnings renders advisory lines beneath a result
func RenderWarnings(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}
	var b strings.Builder
	for i, w := range warnings {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(WarningStyle.Render(fmt.Sprintf("%s %s", WarningMarker, w)))
	}
	return b.String()
}
