package chat

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	PlaceholderText = "Typing…"
	FallbackText    = "This information is not available in the portfolio."
	ErrorText       = "Something went wrong. Please try again."
	CancelledText   = "Request cancelled."

	DefaultGreeting = "Hey! 👋 I'm a digital sidekick for this portfolio. I know all about the latest projects and the creative journey behind them. Want a quick tour or looking for something specific?"
)

// Flags is the presentation state of the widget. Nothing here is persisted.
type Flags struct {
	Open        bool
	HasWelcomed bool
	ShowPopup   bool
}

type Options struct {
	Greeting string

	// CancelOnClose cancels the in-flight request when the panel closes and
	// drops whatever it would have written afterwards.
	CancelOnClose bool

	Logger *zerolog.Logger
}

// Request is one accepted submission. Its context is cancelled when the
// request is released, or earlier when the panel closes with CancelOnClose.
type Request struct {
	ID       string
	Question string

	index      int
	ctx        context.Context
	cancel     context.CancelFunc
	suppressed bool
}

func (r *Request) Context() context.Context {
	return r.ctx
}

// Suppressed reports whether late writes from this request are dropped.
func (r *Request) Suppressed() bool {
	return r.suppressed
}

// Widget owns the conversation, the visibility flags and the in-flight
// guard. It is driven from a single goroutine and is not safe for
// concurrent use.
type Widget struct {
	flags         Flags
	conv          Conversation
	greeting      string
	cancelOnClose bool

	inFlight bool
	active   *Request

	log zerolog.Logger
}

func New(opts Options) *Widget {
	greeting := opts.Greeting
	if strings.TrimSpace(greeting) == "" {
		greeting = DefaultGreeting
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Widget{
		flags:         Flags{ShowPopup: true},
		greeting:      greeting,
		cancelOnClose: opts.CancelOnClose,
		log:           log,
	}
}

func (w *Widget) Flags() Flags {
	return w.flags
}

func (w *Widget) Turns() []Turn {
	return w.conv.Turns()
}

func (w *Widget) Len() int {
	return w.conv.Len()
}

func (w *Widget) Last() (Turn, bool) {
	return w.conv.Last()
}

// InFlight reports whether a submission is waiting on the network.
func (w *Widget) InFlight() bool {
	return w.inFlight
}

// Active returns the in-flight request, or nil.
func (w *Widget) Active() *Request {
	return w.active
}

// Toggle flips the panel and returns whether it is now open. The first
// opening injects the greeting; every toggle dismisses the popup hint.
func (w *Widget) Toggle() bool {
	w.flags.ShowPopup = false
	w.flags.Open = !w.flags.Open

	if w.flags.Open {
		if !w.flags.HasWelcomed {
			w.conv.Append(Turn{Role: RoleAssistant, Text: w.greeting})
			w.flags.HasWelcomed = true
		}
		return true
	}

	if w.cancelOnClose && w.active != nil && !w.active.suppressed {
		req := w.active
		req.suppressed = true
		req.cancel()
		_ = w.conv.Replace(req.index, CancelledText)
		w.log.Debug().Str("request_id", req.ID).Msg("request cancelled on close")
	}
	return false
}

// Submit accepts text as a new user turn unless it is blank or another
// submission is still in flight; in both cases it returns ok=false and
// changes nothing. On success the user turn and a placeholder assistant
// turn are appended and the guard is held until Release.
func (w *Widget) Submit(parent context.Context, text string) (*Request, bool) {
	if strings.TrimSpace(text) == "" || w.inFlight {
		return nil, false
	}
	if parent == nil {
		parent = context.Background()
	}

	w.inFlight = true
	ctx, cancel := context.WithCancel(parent)
	req := &Request{
		ID:       uuid.NewString(),
		Question: text,
		ctx:      ctx,
		cancel:   cancel,
	}

	w.conv.Append(Turn{Role: RoleUser, Text: text})
	req.index = w.conv.Append(Turn{Role: RoleAssistant, Text: PlaceholderText})
	w.active = req

	w.log.Debug().Str("request_id", req.ID).Int("question_len", len(text)).Msg("submission accepted")
	return req, true
}

// Progress mirrors the partial reply into the placeholder. The placeholder
// keeps its marker text until something non-blank has arrived.
func (w *Widget) Progress(req *Request, acc *Accumulator) {
	if !w.writable(req) {
		return
	}
	partial := strings.TrimSpace(acc.Text())
	if partial == "" {
		return
	}
	_ = w.conv.Replace(req.index, partial)
}

// Complete writes the final reply, or the fallback text when nothing but
// whitespace arrived.
func (w *Widget) Complete(req *Request, acc *Accumulator) {
	if !w.writable(req) {
		return
	}
	_ = w.conv.Replace(req.index, acc.Final())
	w.log.Info().Str("request_id", req.ID).Int("chunks", acc.Chunks()).Msg("reply complete")
}

// Fail replaces the placeholder with the generic error text. err is only
// logged.
func (w *Widget) Fail(req *Request, err error) {
	if !w.writable(req) {
		w.log.Debug().Str("request_id", req.ID).Err(err).Msg("suppressed failure")
		return
	}
	_ = w.conv.Replace(req.index, ErrorText)
	w.log.Warn().Str("request_id", req.ID).Err(err).Msg("reply failed")
}

// Release clears the in-flight guard held by req. It must run on every
// path once the request has finished.
func (w *Widget) Release(req *Request) {
	if req == nil || w.active != req {
		return
	}
	req.cancel()
	w.active = nil
	w.inFlight = false
}

func (w *Widget) writable(req *Request) bool {
	return req != nil && w.active == req && !req.suppressed
}
