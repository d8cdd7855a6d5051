package chat

import "strings"

// Accumulator concatenates cleaned stream chunks, each followed by a single
// space. It does no event parsing or deduplication of its own.
type Accumulator struct {
	b      strings.Builder
	chunks int
}

func (a *Accumulator) Add(chunk string) {
	a.b.WriteString(chunk)
	a.b.WriteByte(' ')
	a.chunks++
}

// Text returns the raw accumulated text, trailing space included.
func (a *Accumulator) Text() string {
	return a.b.String()
}

func (a *Accumulator) Chunks() int {
	return a.chunks
}

// Final is the trimmed text, or FallbackText when that is empty.
func (a *Accumulator) Final() string {
	if s := strings.TrimSpace(a.b.String()); s != "" {
		return s
	}
	return FallbackText
}
