package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"portfolio-chat/internal/chat"
)

const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Gray    = "\033[90m"
)

// Output targets. Tests swap them for buffers.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

func Header(text string) {
	fmt.Fprintf(Stdout, "\n%s%s%s\n", Bold+Cyan, text, Reset)
	fmt.Fprintln(Stdout, strings.Repeat("─", min(len(text)+4, 80)))
}

func Success(text string) {
	fmt.Fprintf(Stdout, "%s✓%s %s\n", Green, Reset, text)
}

func Error(text string) {
	fmt.Fprintf(Stderr, "%s✗%s %s\n", Red, Reset, text)
}

func Warn(text string) {
	fmt.Fprintf(Stdout, "%s!%s %s\n", Yellow, Reset, text)
}

func Info(label, value string) {
	fmt.Fprintf(Stdout, "  %s%-20s%s %s\n", Dim, label, Reset, value)
}

func Spinner(text string) {
	fmt.Fprintf(Stdout, "\r%s⟳%s %s", Yellow, Reset, text)
}

func ClearLine() {
	fmt.Fprint(Stdout, "\r\033[K")
}

// ClearLines erases the current line and the n-1 lines above it, leaving
// the cursor at the start of the topmost one.
func ClearLines(n int) {
	ClearLine()
	for i := 1; i < n; i++ {
		fmt.Fprint(Stdout, "\033[1A\r\033[K")
	}
}

// OrUnset shows value, or a dimmed "(not set)".
func OrUnset(value string) string {
	if value == "" {
		return Dim + "(not set)" + Reset
	}
	return value
}

// Reply label for a finished assistant turn.
func ReplyLabel(text string) string {
	switch text {
	case chat.ErrorText:
		return Red + "✗ Error" + Reset
	case chat.FallbackText:
		return Yellow + "∅ No answer" + Reset
	case chat.CancelledText:
		return Gray + "⊘ Cancelled" + Reset
	case chat.PlaceholderText:
		return Yellow + "⟳ Typing" + Reset
	}
	return Green + "💬 Reply" + Reset
}

// Reply prints text coloured by its kind: the fixed error text in red, the
// fallback in yellow, anything else plain.
func Reply(text string) {
	switch text {
	case chat.ErrorText:
		fmt.Fprintf(Stdout, "%s%s%s\n", Red, text, Reset)
	case chat.FallbackText, chat.CancelledText:
		fmt.Fprintf(Stdout, "%s%s%s\n", Yellow, text, Reset)
	default:
		fmt.Fprintln(Stdout, text)
	}
}

func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.String()
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
}
