package main

import (
	"fmt"
	"os"

	"portfolio-chat/internal/tui"
)

// ANSI color helpers
const (
	gray  = "\033[38;5;242m"
	red   = "\033[31m"
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"
)

// Usage: iconpreview [icon-file]
func main() {
	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	withIcon, fallback, err := tui.ButtonPreview(path)

	fmt.Println()
	fmt.Println(bold + "═══ Chat button preview ═══" + reset)

	fmt.Println()
	if path == "" {
		fmt.Println(dim + "Bundled icon" + reset)
	} else {
		fmt.Println(dim + "Icon from " + path + reset)
	}
	fmt.Println()
	if err != nil {
		fmt.Printf("%s✗ %v%s %s(falls back to the glyph)%s\n\n", red, err, reset, gray, reset)
	}
	fmt.Println(withIcon)

	fmt.Println()
	fmt.Println(dim + "Glyph fallback" + reset)
	fmt.Println()
	fmt.Println(fallback)
	fmt.Println()

	if err != nil {
		os.Exit(1)
	}
}
