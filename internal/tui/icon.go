package tui

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// FallbackGlyph is drawn on the button once the icon failed to load.
const FallbackGlyph = "🤖"

const (
	maxIconLines = 6
	maxIconWidth = 16
)

//go:embed assets/chat-icon.txt
var defaultIcon string

var errEmptyIcon = errors.New("icon is empty")

// loadIcon reads the button icon from path, or the bundled one when path
// is empty. Icons must be small text art.
func loadIcon(path string) (string, error) {
	raw := defaultIcon
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading icon: %w", err)
		}
		raw = string(data)
	}

	raw = strings.TrimRight(raw, "\n")
	if strings.TrimSpace(raw) == "" {
		return "", errEmptyIcon
	}
	lines := strings.Split(raw, "\n")
	if len(lines) > maxIconLines {
		return "", fmt.Errorf("icon has %d lines, max %d", len(lines), maxIconLines)
	}
	for _, l := range lines {
		if w := lipgloss.Width(l); w > maxIconWidth {
			return "", fmt.Errorf("icon is %d columns wide, max %d", w, maxIconWidth)
		}
	}
	return raw, nil
}

// renderButton draws the floating toggle button.
func renderButton(icon string, iconFailed bool) string {
	if iconFailed || icon == "" {
		return buttonStyle.Render(FallbackGlyph)
	}
	return buttonStyle.Render(iconStyle.Render(icon))
}

// ButtonPreview renders the button with the icon at path (the bundled one
// when empty) next to the glyph fallback. err reports why the icon could
// not be used; the first return is then the fallback too.
func ButtonPreview(path string) (withIcon, fallback string, err error) {
	art, err := loadIcon(path)
	return renderButton(art, err != nil), renderButton("", true), err
}
