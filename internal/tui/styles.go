package tui

import "github.com/charmbracelet/lipgloss"

// ─── Colors ─────────────────────────────────────────────────────────────────

var (
	colorAccent  = lipgloss.Color("#7C5CFF") // portfolio violet, primary accent
	colorGreen   = lipgloss.Color("78")
	colorRed     = lipgloss.Color("196")
	colorGray    = lipgloss.Color("242")
	colorDimGray = lipgloss.Color("238")
	colorWhite   = lipgloss.Color("255")
)

// ─── Popup / Button ─────────────────────────────────────────────────────────

var popupStyle = lipgloss.NewStyle().
	Foreground(colorWhite).
	Background(colorAccent).
	Padding(0, 1).
	MarginBottom(1)

var buttonStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorAccent).
	Padding(0, 1)

var iconStyle = lipgloss.NewStyle().
	Foreground(colorAccent)

// ─── Panel ──────────────────────────────────────────────────────────────────

var panelStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorAccent)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorWhite).
	Background(colorAccent).
	Padding(0, 1)

var closeStyle = lipgloss.NewStyle().
	Foreground(colorWhite).
	Background(colorAccent).
	Bold(true)

var separatorStyle = lipgloss.NewStyle().
	Foreground(colorDimGray)

// ─── Messages ───────────────────────────────────────────────────────────────

var userLabelStyle = lipgloss.NewStyle().
	Foreground(colorAccent).
	Bold(true)

var assistantLabelStyle = lipgloss.NewStyle().
	Foreground(colorGreen).
	Bold(true)

var userTextStyle = lipgloss.NewStyle().
	Foreground(colorWhite)

var assistantTextStyle = lipgloss.NewStyle()

var pendingTextStyle = lipgloss.NewStyle().
	Foreground(colorGray).
	Italic(true)

var errorTextStyle = lipgloss.NewStyle().
	Foreground(colorRed)

// ─── Input row ──────────────────────────────────────────────────────────────

var promptSymbol = lipgloss.NewStyle().
	Foreground(colorAccent).
	Bold(true)

var sendStyle = lipgloss.NewStyle().
	Foreground(colorWhite).
	Background(colorAccent).
	Padding(0, 1)

var sendBusyStyle = lipgloss.NewStyle().
	Foreground(colorGray).
	Background(colorDimGray).
	Padding(0, 1)

var hintBarStyle = lipgloss.NewStyle().
	Foreground(colorGray)
