package tui

import (
	"strings"

	"portfolio-chat/internal/chat"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const (
	maxPanelWidth  = 64
	maxPanelHeight = 26
	minViewport    = 3
)

// ─── Message list ───────────────────────────────────────────────────────────

// renderTurns lays the conversation out top to bottom. Turns are identified
// only by their position.
func renderTurns(turns []chat.Turn, width int, title string, md *glamour.TermRenderer) string {
	if width < 10 {
		width = 10
	}
	blocks := make([]string, 0, len(turns))
	for _, t := range turns {
		blocks = append(blocks, renderTurn(t, width, title, md))
	}
	return strings.Join(blocks, "\n\n")
}

func renderTurn(t chat.Turn, width int, title string, md *glamour.TermRenderer) string {
	if t.Role == chat.RoleUser {
		label := userLabelStyle.Render("You")
		body := userTextStyle.Width(width).Render(t.Text)
		return label + "\n" + body
	}

	label := assistantLabelStyle.Render(title)
	var body string
	switch t.Text {
	case chat.PlaceholderText, chat.CancelledText:
		body = pendingTextStyle.Render(t.Text)
	case chat.ErrorText:
		body = errorTextStyle.Render(t.Text)
	default:
		body = renderAssistantText(t.Text, width, md)
	}
	return label + "\n" + body
}

// renderAssistantText falls back to plain wrapping when markdown is off or
// glamour cannot render the text.
func renderAssistantText(text string, width int, md *glamour.TermRenderer) string {
	if md != nil {
		if out, err := md.Render(text); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return assistantTextStyle.Width(width).Render(text)
}

func newMarkdownRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// ─── Panel pieces ───────────────────────────────────────────────────────────

const closeMark = " ✕ "

var closeWidth = lipgloss.Width(closeMark)

func renderHeader(title string, width int) string {
	closeBtn := closeStyle.Render(closeMark)
	titleWidth := width - lipgloss.Width(closeBtn)
	if titleWidth < 1 {
		titleWidth = 1
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Width(titleWidth).Render(truncate(title, titleWidth-2)),
		closeBtn,
	)
}

func renderSend(busy bool) string {
	if busy {
		return sendBusyStyle.Render("Send")
	}
	return sendStyle.Render("Send")
}

func renderSeparator(width int) string {
	if width < 1 {
		width = 1
	}
	return separatorStyle.Render(strings.Repeat("─", width))
}

func renderPopup(text string) string {
	return popupStyle.Render(text)
}

// ─── Layout ─────────────────────────────────────────────────────────────────

// panelSize returns the panel's outer size for a terminal of w×h, leaving
// room for the button underneath.
func panelSize(w, h, buttonHeight int) (int, int) {
	pw := min(maxPanelWidth, w-2)
	ph := min(maxPanelHeight, h-buttonHeight-1)
	return max(pw, 20), max(ph, minViewport+6)
}

// viewportSize is the message list area inside a panel of pw×ph: the
// border takes two rows and columns; header, input row and two separators
// take four rows.
func viewportSize(pw, ph int) (int, int) {
	return max(pw-2, 1), max(ph-6, minViewport)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > n {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
