// Package output provides consistent CLI output formatting with icons and
// optional lipgloss colors.
package output

import (
	"fmt"
	"io"
	"strings"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out      io.Writer
	useColor bool
	styles   Styles
}

// Option configures a Writer.
type Option func(*Writer)

// WithColor forces colors on or off.
func WithColor(on bool) Option {
	return func(w *Writer) { w.useColor = on }
}

// New creates a new output Writer. Colors are enabled only when out is a
// terminal and neither NO_COLOR nor a CI environment is detected.
func New(out io.Writer, opts ...Option) *Writer {
	w := &Writer{
		out:      out,
		useColor: ShouldColor(out, false),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.styles = GetStyles(!w.useColor)
	return w
}

// Out returns the underlying writer.
func (w *Writer) Out() io.Writer {
	return w.out
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Header prints a bold section title.
func (w *Writer) Header(title string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(title))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", w.styles.Success.Render(msg))
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", w.styles.Warning.Render(msg))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", w.styles.Error.Render(msg))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Item prints an indented list entry with a short label, for example a
// file path tagged "created".
func (w *Writer) Item(label, msg string) {
	if label == "" {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
		return
	}
	_, _ = fmt.Fprintf(w.out, "   %s %s\n", w.styles.Label.Render(fmt.Sprintf("%-11s", label)), msg)
}

// Dim prints secondary text.
func (w *Writer) Dim(msg string) {
	_, _ = fmt.Fprintf(w.out, "   %s\n", w.styles.Dim.Render(msg))
}

// Step prints "[current/total] msg" for multi-module runs.
func (w *Writer) Step(current, total int, msg string) {
	_, _ = fmt.Fprintf(w.out, "%s %s\n", w.styles.Label.Render(fmt.Sprintf("[%d/%d]", current, total)), msg)
}

// Code prints a code block with indentation.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(content, "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", w.styles.Code.Render(line))
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
