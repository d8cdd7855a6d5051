package tui

import (
	"context"
	"strings"

	"portfolio-chat/internal/chat"
	"portfolio-chat/internal/config"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

// ─── Model ──────────────────────────────────────────────────────────────────

type model struct {
	width  int
	height int
	ready  bool

	// Bubble Tea components
	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	// App state
	ctx     context.Context
	cfg     *config.Config
	client  chat.Assistant
	widget  *chat.Widget
	version string
	log     zerolog.Logger

	// Streaming state
	acc    *chat.Accumulator
	accReq *chat.Request
	stream <-chan tea.Msg

	// Button icon; iconFailed never goes back to false.
	icon       string
	iconFailed bool

	markdown bool
	md       *glamour.TermRenderer
	mdWidth  int
}

func initialModel(ctx context.Context, version string, cfg *config.Config, client chat.Assistant, log zerolog.Logger) model {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg == nil {
		cfg = config.Default()
	}

	ti := textinput.New()
	ti.Placeholder = cfg.Placeholder
	if ti.Placeholder == "" {
		ti.Placeholder = config.DefaultPlaceholder
	}
	ti.Focus()
	ti.CharLimit = 2000
	ti.Prompt = "❯ "
	ti.PromptStyle = promptSymbol
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(colorAccent)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)

	vp := viewport.New(maxPanelWidth-2, minViewport)

	icon, err := loadIcon(cfg.IconPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.IconPath).Msg("icon unavailable, using glyph")
	}

	return model{
		input:    ti,
		spinner:  sp,
		viewport: vp,
		ctx:      ctx,
		cfg:      cfg,
		client:   client,
		widget: chat.New(chat.Options{
			Greeting:      cfg.Greeting,
			CancelOnClose: cfg.CancelOnClose,
			Logger:        &log,
		}),
		version:    version,
		log:        log,
		icon:       icon,
		iconFailed: err != nil,
		markdown:   cfg.Markdown,
	}
}

// ─── Init ───────────────────────────────────────────────────────────────────

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
	)
}

// ─── Update ─────────────────────────────────────────────────────────────────

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}

		if !m.widget.Flags().Open {
			if key.Matches(msg, keys.Open, keys.Toggle) {
				m.toggle()
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, keys.Close, keys.Toggle):
			m.toggle()
			return m, nil
		case key.Matches(msg, keys.Send):
			return m.submit()
		case key.Matches(msg, keys.PageUp):
			m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height/2)
			return m, nil
		case key.Matches(msg, keys.PageDown):
			m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height/2)
			return m, nil
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			switch {
			case m.onButton(msg.X, msg.Y):
				m.toggle()
				return m, nil
			case m.onClose(msg.X, msg.Y):
				m.toggle()
				return m, nil
			case m.onSend(msg.X, msg.Y):
				return m.submit()
			}
		}
		if m.widget.Flags().Open {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil

	// ── Stream messages ───────────────────────────────────────────────
	case streamChunkMsg:
		if msg.req == m.accReq {
			m.acc.Add(msg.chunk)
			m.widget.Progress(msg.req, m.acc)
			m.refresh()
		}
		// Keep reading from the stream channel
		if m.stream != nil {
			cmds = append(cmds, waitForStream(m.stream))
		}
		return m, tea.Batch(cmds...)

	case streamDoneMsg:
		if msg.req == m.accReq {
			m.widget.Complete(msg.req, m.acc)
		}
		m.finishStream(msg.req)
		return m, nil

	case streamErrMsg:
		m.widget.Fail(msg.req, msg.err)
		m.finishStream(msg.req)
		return m, nil
	}

	// Update sub-components
	var cmd tea.Cmd

	if m.widget.Flags().Open {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit hands the input to the widget. A blank input or a request still
// in flight leaves everything, including the input buffer, untouched.
func (m model) submit() (tea.Model, tea.Cmd) {
	if m.client == nil {
		return m, nil
	}
	req, ok := m.widget.Submit(m.ctx, m.input.Value())
	if !ok {
		return m, nil
	}
	m.input.SetValue("")
	m.acc = &chat.Accumulator{}
	m.accReq = req
	m.log.Info().Str("request_id", req.ID).Msg("question submitted")

	ch, wait := beginStream(m.client, req)
	m.stream = ch
	m.refresh()
	return m, tea.Batch(wait, m.spinner.Tick)
}

func (m *model) finishStream(req *chat.Request) {
	m.widget.Release(req)
	if req == m.accReq {
		m.acc = nil
		m.accReq = nil
		m.stream = nil
	}
	m.refresh()
}

func (m *model) toggle() {
	if m.widget.Toggle() {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	m.layout()
}

// ─── Layout ─────────────────────────────────────────────────────────────────

func (m *model) layout() {
	if !m.ready {
		return
	}
	pw, ph := panelSize(m.width, m.height, lipgloss.Height(m.button()))
	vw, vh := viewportSize(pw, ph)
	m.viewport.Width = vw
	m.viewport.Height = vh
	// input row: prompt + field + space + send button
	m.input.Width = max(vw-lipgloss.Width(m.input.Prompt)-lipgloss.Width(renderSend(false))-2, 5)

	if m.markdown && (m.md == nil || m.mdWidth != vw) {
		m.md = newMarkdownRenderer(vw)
		m.mdWidth = vw
	}
	m.refresh()
}

// refresh re-renders the message list and keeps it scrolled to the newest
// turn.
func (m *model) refresh() {
	title := m.cfg.Title
	if title == "" {
		title = config.DefaultTitle
	}
	m.viewport.SetContent(renderTurns(m.widget.Turns(), m.viewport.Width, title, m.md))
	m.viewport.GotoBottom()
}

func (m model) button() string {
	return renderButton(m.icon, m.iconFailed)
}

// onButton reports whether the cell x,y falls on the floating button, which
// View anchors to the bottom-right corner.
func (m model) onButton(x, y int) bool {
	b := m.button()
	return x >= m.width-lipgloss.Width(b) && y >= m.height-lipgloss.Height(b)
}

// panelRect returns the top-left cell and outer width of the open panel,
// which View stacks right-aligned directly above the button.
func (m model) panelRect() (x, y, w int, ok bool) {
	if !m.ready || !m.widget.Flags().Open {
		return 0, 0, 0, false
	}
	panel := m.renderPanel()
	w = lipgloss.Width(panel)
	y = m.height - lipgloss.Height(panel) - lipgloss.Height(m.button())
	return m.width - w, y, w, true
}

// onClose reports whether x,y falls on the header's close mark.
func (m model) onClose(x, y int) bool {
	px, py, pw, ok := m.panelRect()
	if !ok {
		return false
	}
	right := px + pw - 1 // border column
	return y == py+1 && x >= right-closeWidth && x < right
}

// onSend reports whether x,y falls on the Send control at the right end of
// the input row.
func (m model) onSend(x, y int) bool {
	px, py, pw, ok := m.panelRect()
	if !ok {
		return false
	}
	// border, header, viewport, separator
	row := py + 1 + 1 + m.viewport.Height + 1
	right := px + pw - 1
	return y == row && x >= right-lipgloss.Width(renderSend(m.widget.InFlight())) && x < right
}

// ─── View ───────────────────────────────────────────────────────────────────

func (m model) View() string {
	if !m.ready {
		return ""
	}

	var parts []string
	flags := m.widget.Flags()

	if flags.Open {
		parts = append(parts, m.renderPanel())
	}
	if flags.ShowPopup {
		popup := m.cfg.Popup
		if popup == "" {
			popup = config.DefaultPopup
		}
		parts = append(parts, renderPopup(popup))
	}
	parts = append(parts, m.button())

	body := lipgloss.JoinVertical(lipgloss.Right, parts...)
	return lipgloss.Place(m.width, m.height, lipgloss.Right, lipgloss.Bottom, body)
}

func (m model) renderPanel() string {
	w := m.viewport.Width
	title := m.cfg.Title
	if title == "" {
		title = config.DefaultTitle
	}

	busy := m.widget.InFlight()
	inputRow := m.input.View()
	if busy {
		inputRow = m.spinner.View() + " " + hintBarStyle.Render(chat.PlaceholderText)
	}
	pad := w - lipgloss.Width(inputRow) - lipgloss.Width(renderSend(busy))
	inputRow += strings.Repeat(" ", max(pad, 1)) + renderSend(busy)

	inner := lipgloss.JoinVertical(lipgloss.Left,
		renderHeader(title, w),
		m.viewport.View(),
		renderSeparator(w),
		inputRow,
		hintBarStyle.Render(truncate(m.hint(), w)),
	)
	return panelStyle.Render(inner)
}

func (m model) hint() string {
	h := "enter send · esc close · pgup/pgdn scroll"
	if m.version != "" {
		h += " · " + m.version
	}
	return h
}
