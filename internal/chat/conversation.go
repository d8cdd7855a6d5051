package chat

import "errors"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in the conversation.
type Turn struct {
	Role Role
	Text string
}

var (
	ErrTurnOutOfRange = errors.New("turn index out of range")
	ErrNotAssistant   = errors.New("only assistant turns can be replaced")
)

// Conversation is the ordered message log. It is append-only except for
// assistant turns that act as placeholders while a reply streams in.
type Conversation struct {
	turns []Turn
}

// Append adds t at the end and returns its position.
func (c *Conversation) Append(t Turn) int {
	c.turns = append(c.turns, t)
	return len(c.turns) - 1
}

// Replace swaps the text of the assistant turn at position i.
func (c *Conversation) Replace(i int, text string) error {
	if i < 0 || i >= len(c.turns) {
		return ErrTurnOutOfRange
	}
	if c.turns[i].Role != RoleAssistant {
		return ErrNotAssistant
	}
	c.turns[i].Text = text
	return nil
}

func (c *Conversation) Len() int {
	return len(c.turns)
}

// Last returns the most recent turn, if any.
func (c *Conversation) Last() (Turn, bool) {
	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}

// Turns returns a copy of the log, oldest first.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}
