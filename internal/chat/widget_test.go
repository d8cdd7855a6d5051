package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAssistant replays chunks, then returns err.
type fakeAssistant struct {
	chunks []string
	err    error

	calls    int
	lastID   string
	lastText string
}

func (f *fakeAssistant) StreamChat(ctx context.Context, question, requestID string, onChunk func(string)) error {
	f.calls++
	f.lastID = requestID
	f.lastText = question
	for _, c := range f.chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		onChunk(c)
	}
	return f.err
}

func openWidget(t *testing.T) *Widget {
	t.Helper()
	w := New(Options{})
	require.True(t, w.Toggle())
	return w
}

func TestNewWidgetFlags(t *testing.T) {
	w := New(Options{})
	assert.Equal(t, Flags{ShowPopup: true}, w.Flags())
	assert.Equal(t, 0, w.Len())
	assert.False(t, w.InFlight())
}

func TestToggleWelcomesOnce(t *testing.T) {
	w := New(Options{Greeting: "hi there"})

	require.True(t, w.Toggle())
	require.Equal(t, 1, w.Len())
	assert.Equal(t, Turn{Role: RoleAssistant, Text: "hi there"}, w.Turns()[0])
	assert.True(t, w.Flags().HasWelcomed)
	assert.False(t, w.Flags().ShowPopup)

	for i := 0; i < 3; i++ {
		assert.False(t, w.Toggle())
		assert.True(t, w.Toggle())
	}
	assert.Equal(t, 1, w.Len(), "greeting must not be repeated")
}

func TestToggleDefaultGreeting(t *testing.T) {
	w := New(Options{Greeting: "   "})
	w.Toggle()
	assert.Equal(t, DefaultGreeting, w.Turns()[0].Text)
}

func TestCloseKeepsPopupDismissed(t *testing.T) {
	w := New(Options{})
	w.Toggle()
	w.Toggle()
	f := w.Flags()
	assert.False(t, f.Open)
	assert.False(t, f.ShowPopup)
	assert.True(t, f.HasWelcomed)
}

func TestSubmitIgnoresBlankInput(t *testing.T) {
	for _, in := range []string{"", " ", "\t\n  "} {
		w := openWidget(t)
		req, ok := w.Submit(context.Background(), in)
		assert.False(t, ok)
		assert.Nil(t, req)
		assert.Equal(t, 1, w.Len())
		assert.False(t, w.InFlight())
	}
}

func TestSubmitAppendsTurnsAndHoldsGuard(t *testing.T) {
	w := openWidget(t)

	req, ok := w.Submit(context.Background(), "  what projects?  ")
	require.True(t, ok)
	require.NotNil(t, req)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "  what projects?  ", req.Question)
	assert.True(t, w.InFlight())
	assert.Same(t, req, w.Active())

	turns := w.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, Turn{Role: RoleUser, Text: "  what projects?  "}, turns[1])
	assert.Equal(t, Turn{Role: RoleAssistant, Text: PlaceholderText}, turns[2])
}

func TestSubmitWhileInFlightIsNoop(t *testing.T) {
	w := openWidget(t)
	_, ok := w.Submit(context.Background(), "first")
	require.True(t, ok)

	req, ok := w.Submit(context.Background(), "second")
	assert.False(t, ok)
	assert.Nil(t, req)
	assert.Equal(t, 3, w.Len())
}

func TestRunSuccess(t *testing.T) {
	w := openWidget(t)
	req, _ := w.Submit(context.Background(), "hi")
	a := &fakeAssistant{chunks: []string{"Hello", "there"}}

	require.NoError(t, Run(w, a, req, nil))

	last, _ := w.Last()
	assert.Equal(t, "Hello there", last.Text)
	assert.Equal(t, req.ID, a.lastID)
	assert.Equal(t, "hi", a.lastText)
	assert.False(t, w.InFlight())
	assert.Error(t, req.Context().Err(), "context is released with the request")
}

func TestRunWhitespaceOnlyUsesFallback(t *testing.T) {
	w := openWidget(t)
	req, _ := w.Submit(context.Background(), "hi")
	a := &fakeAssistant{chunks: []string{"", "  ", ""}}

	require.NoError(t, Run(w, a, req, nil))

	last, _ := w.Last()
	assert.Equal(t, FallbackText, last.Text)
}

func TestRunFailureSetsErrorAndReleases(t *testing.T) {
	w := openWidget(t)
	req, _ := w.Submit(context.Background(), "hi")
	a := &fakeAssistant{chunks: []string{"partial"}, err: errors.New("connection reset")}

	err := Run(w, a, req, nil)
	require.Error(t, err)

	last, _ := w.Last()
	assert.Equal(t, ErrorText, last.Text, "partial content is not preserved")
	assert.False(t, w.InFlight())

	_, ok := w.Submit(context.Background(), "again")
	assert.True(t, ok, "a later submission is accepted")
}

func TestRunReportsProgress(t *testing.T) {
	w := openWidget(t)
	req, _ := w.Submit(context.Background(), "hi")
	a := &fakeAssistant{chunks: []string{"", "Hel", "lo"}}

	var seen []string
	require.NoError(t, Run(w, a, req, func(acc *Accumulator) {
		w.Progress(req, acc)
		last, _ := w.Last()
		seen = append(seen, last.Text)
	}))
	assert.Equal(t, []string{PlaceholderText, "Hel", "Hel lo"}, seen)
}

func TestCancelOnCloseSuppressesLateWrites(t *testing.T) {
	w := New(Options{CancelOnClose: true})
	w.Toggle()
	req, _ := w.Submit(context.Background(), "hi")

	assert.False(t, w.Toggle())
	assert.True(t, req.Suppressed())
	assert.ErrorIs(t, req.Context().Err(), context.Canceled)
	assert.True(t, w.InFlight(), "guard is held until the stream returns")

	acc := &Accumulator{}
	acc.Add("late")
	w.Complete(req, acc)
	w.Fail(req, context.Canceled)
	w.Release(req)

	last, _ := w.Last()
	assert.Equal(t, CancelledText, last.Text)
	assert.False(t, w.InFlight())
}

func TestCloseWithoutCancelLetsRequestFinish(t *testing.T) {
	w := openWidget(t)
	req, _ := w.Submit(context.Background(), "hi")
	w.Toggle()

	require.NoError(t, req.Context().Err())
	require.NoError(t, Run(w, &fakeAssistant{chunks: []string{"done"}}, req, nil))

	last, _ := w.Last()
	assert.Equal(t, "done", last.Text)
}

func TestReleaseIgnoresStaleRequest(t *testing.T) {
	w := openWidget(t)
	first, _ := w.Submit(context.Background(), "one")
	w.Release(first)
	second, ok := w.Submit(context.Background(), "two")
	require.True(t, ok)

	w.Release(first)
	assert.True(t, w.InFlight())
	assert.Same(t, second, w.Active())
}

func TestSubmitBeforeOpenThenWelcome(t *testing.T) {
	w := New(Options{})
	req, ok := w.Submit(context.Background(), "hi")
	require.True(t, ok)
	w.Toggle()

	acc := &Accumulator{}
	acc.Add("answer")
	w.Complete(req, acc)
	w.Release(req)

	turns := w.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, "answer", turns[1].Text)
	assert.Equal(t, DefaultGreeting, turns[2].Text)
}
