package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/diagrammer/pkg/errors"
	"github.com/matzehuels/diagrammer/pkg/history"
	"github.com/matzehuels/diagrammer/pkg/render"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Notifications
// =============================================================================

// notice formats a titled notification line, e.g. "API Key Missing: Please
// enter your OpenAI API key".
func notice(title, msg string) string {
	return StyleTitle.Render(title) + StyleDim.Render(":") + " " + msg
}

// FormatError renders a command error for the terminal. Coded errors are
// shown as their notification title and user message.
func FormatError(err error) string {
	if errors.GetCode(err) == "" {
		return styleIconError.Render(iconError) + " " + err.Error()
	}
	return styleIconError.Render(iconError) + " " + notice(errors.Title(err), errors.UserMessage(err))
}

// printRenderResult prints the outcome of a render. Failed renders return
// their error so the command exits non-zero.
func printRenderResult(res render.Result, elapsed time.Duration) error {
	switch res.Status {
	case render.StatusSuccess:
		printSuccess("Rendered %s %s", StyleValue.Render(res.Artifact.ID), StyleDim.Render("("+elapsed.String()+")"))
		return nil
	case render.StatusIdle:
		printWarning("Nothing to render")
		return nil
	default:
		return res.Err
	}
}

// printHistoryEntry prints one history entry on two lines.
func printHistoryEntry(e history.Entry) {
	prompt := strings.Join(strings.Fields(e.Prompt), " ")
	fmt.Println(StyleValue.Render(prompt))
	printDetail("%s · %s · %s · %s", e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Model, e.Dialect, e.ID)
}
