package tui

import (
	"portfolio-chat/internal/chat"

	tea "github.com/charmbracelet/bubbletea"
)

// ─── Messages sent from stream goroutine to Bubble Tea ──────────────────────

type streamChunkMsg struct {
	req   *chat.Request
	chunk string
}

type streamDoneMsg struct {
	req *chat.Request
}

type streamErrMsg struct {
	req *chat.Request
	err error
}

// ─── Stream command ─────────────────────────────────────────────────────────
//
// Runs the request in a goroutine and hands its chunks to Update through a
// channel, one message per waitForStream. The goroutine always ends with
// exactly one streamDoneMsg or streamErrMsg, which is what releases the
// widget's in-flight guard.

func beginStream(client chat.Assistant, req *chat.Request) (<-chan tea.Msg, tea.Cmd) {
	ch := make(chan tea.Msg, 64)

	go func() {
		defer close(ch)

		err := client.StreamChat(req.Context(), req.Question, req.ID, func(chunk string) {
			ch <- streamChunkMsg{req: req, chunk: chunk}
		})
		if err != nil {
			ch <- streamErrMsg{req: req, err: err}
			return
		}
		ch <- streamDoneMsg{req: req}
	}()

	return ch, waitForStream(ch)
}

// waitForStream reads the next message from the channel.
func waitForStream(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
