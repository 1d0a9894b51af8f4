package ui

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"

	"docsdiff/pkg/errors"
)

var (
	// Check if output supports colors
	supportsColor = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	output io.Writer = os.Stdout

	// Color functions
	ColorSuccess = colorFunc("green")
	ColorError   = colorFunc("red")
	ColorWarning = colorFunc("yellow")
	ColorInfo    = colorFunc("cyan")
	ColorBold    = colorFunc("default+b")
	ColorDim     = colorFunc("default+h")
)

// colorFunc returns a function that colors text if supported
func colorFunc(style string) func(string) string {
	return func(text string) string {
		if supportsColor {
			return ansi.Color(text, style)
		}
		return text
	}
}

// SetOutput redirects every notice and table
func SetOutput(w io.Writer) {
	output = w
}

// SetColor forces colored output on or off
func SetColor(enabled bool) {
	supportsColor = enabled
	color.NoColor = !enabled
}

// ShowHeader displays a formatted header
func ShowHeader(title string) {
	width := 50
	padding := (width - len(title) - 2) / 2
	if padding < 0 {
		padding = 0
	}
	right := width - 2 - padding - len(title)
	if right < 0 {
		right = 0
	}

	fmt.Fprintln(output, "\n+"+strings.Repeat("-", width-2)+"+")
	fmt.Fprintf(output, "|%s%s%s|\n", strings.Repeat(" ", padding), ColorBold(title), strings.Repeat(" ", right))
	fmt.Fprintln(output, "+"+strings.Repeat("-", width-2)+"+")
}

// ShowError displays an error with its code and suggestions
func ShowError(err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		fmt.Fprintf(output, "%s %s\n", ColorError("ERROR:"), err.Error())
		return
	}

	fmt.Fprintf(output, "%s %s %s\n", ColorError("ERROR:"), ColorDim("["+string(appErr.Code)+"]"), appErr.Message)
	for cause := appErr.Cause; cause != nil; {
		if inner, ok := cause.(*errors.AppError); ok {
			fmt.Fprintf(output, "  %s\n", ColorDim(inner.Message))
			cause = inner.Cause
			continue
		}
		fmt.Fprintf(output, "  %s\n", ColorDim(cause.Error()))
		break
	}
	for _, suggestion := range suggestions(err) {
		fmt.Fprintf(output, "  %s %s\n", ColorInfo("TIP:"), suggestion)
	}
}

// suggestions collects the suggestions of every AppError in the chain
func suggestions(err error) []string {
	var out []string
	for err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			out = append(out, appErr.Suggestions...)
		}
		err = stderrors.Unwrap(err)
	}
	return out
}

// ShowSuccess displays a success message
func ShowSuccess(message string) {
	fmt.Fprintf(output, "%s %s\n", ColorSuccess("SUCCESS:"), message)
}

// ShowWarning displays a warning message
func ShowWarning(message string) {
	fmt.Fprintf(output, "%s %s\n", ColorWarning("WARNING:"), ColorWarning(message))
}

// ShowInfo displays an info message
func ShowInfo(message string) {
	fmt.Fprintf(output, "%s %s\n", ColorInfo("INFO:"), message)
}

// FormatDuration renders d with a precision suited to its size
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}

// FormatBytes renders a size in B, KiB or MiB
func FormatBytes(n int) string {
	const unit = 1024
	switch {
	case n < unit:
		return fmt.Sprintf("%d B", n)
	case n < unit*unit:
		return fmt.Sprintf("%.1f KiB", float64(n)/unit)
	default:
		return fmt.Sprintf("%.1f MiB", float64(n)/(unit*unit))
	}
}
