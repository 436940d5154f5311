// Package swatch lists colorschemes, with color chips when writing to a terminal.
package swatch

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/badger/internal/colorscheme"
)

// Source provides the colorschemes to list.
type Source interface {
	Names() []string
	Lookup(name string) (colorscheme.Scheme, bool)
}

// Options configures a listing.
type Options struct {
	Writer     io.Writer // Output destination (default: os.Stdout).
	ForcePlain bool      // Force plain text even if TTY.
}

// Write lists every scheme in src, one per line in name order. Terminals get
// a rendered two-tone chip; other writers get the raw color values.
func Write(opts Options, src Source) error {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	styled := !opts.ForcePlain && isTTY(opts.Writer)

	names := src.Names()
	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}

	for _, name := range names {
		scheme, _ := src.Lookup(name)
		line := plainLine(name, scheme, width)
		if styled {
			line = styledLine(name, scheme, width)
		}
		if _, err := fmt.Fprintln(opts.Writer, line); err != nil {
			return fmt.Errorf("swatch: writing %s: %w", name, err)
		}
	}
	return nil
}

func plainLine(name string, s colorscheme.Scheme, width int) string {
	return fmt.Sprintf("%-*s  %-7s  %s", width, name, s.ColorA, s.ColorB)
}

func styledLine(name string, s colorscheme.Scheme, width int) string {
	chip := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fff")).
		Padding(0, 1)
	left := chip.Background(lipgloss.Color(s.ColorA)).Render("badge")
	right := chip.Background(lipgloss.Color(s.ColorB)).Render(name)
	label := lipgloss.NewStyle().Width(width).Render(name)
	return label + "  " + left + right
}

// isTTY reports whether w is connected to a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
