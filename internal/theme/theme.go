// Package theme styles terminal output.
package theme

import (
	"io"
	"os"

	"github.com/fatih/color"
)

// Theme hands out one Style per message role. Every style prints to Writer.
type Theme interface {
	Primary() *Style
	Secondary() *Style
	Success() *Style
	Error() *Style
	Warning() *Style
	Info() *Style
	Subtle() *Style

	Writer() io.Writer
	// IsEnabled reports whether styles emit color codes.
	IsEnabled() bool
}

type role int

const (
	primary role = iota
	secondary
	success
	failure
	warning
	info
	subtle
	roleCount
)

type palette [roleCount][]color.Attribute

var (
	defaultPalette = palette{
		primary:   {color.FgHiCyan, color.Bold},
		secondary: {color.FgBlue},
		success:   {color.FgGreen, color.Bold},
		failure:   {color.FgRed, color.Bold},
		warning:   {color.FgYellow},
		info:      {color.FgWhite},
		subtle:    {color.FgHiBlack},
	}

	// Calmer colors for long reading sessions
	professionalPalette = palette{
		primary:   {color.FgBlue, color.Bold},
		secondary: {color.FgHiBlue},
		success:   {color.FgGreen},
		failure:   {color.FgRed},
		warning:   {color.FgYellow},
		info:      {color.FgWhite},
		subtle:    {color.FgHiBlack},
	}
)

// DefaultTheme is the palette-backed Theme used by the CLI
type DefaultTheme struct {
	styles  [roleCount]*Style
	writer  io.Writer
	enabled bool
}

var _ Theme = (*DefaultTheme)(nil)

// NewDefaultTheme prints to stdout in bright colors
func NewDefaultTheme() *DefaultTheme {
	return newTheme(defaultPalette, os.Stdout, !color.NoColor)
}

// NewProfessionalTheme prints to stdout in muted colors
func NewProfessionalTheme() *DefaultTheme {
	return newTheme(professionalPalette, os.Stdout, !color.NoColor)
}

// NewPlainTheme prints to w without any color codes
func NewPlainTheme(w io.Writer) *DefaultTheme {
	return newTheme(defaultPalette, w, false)
}

func newTheme(p palette, w io.Writer, enabled bool) *DefaultTheme {
	t := &DefaultTheme{writer: w, enabled: enabled}
	for r, attrs := range p {
		t.styles[r] = newStyle(w, enabled, attrs...)
	}
	return t
}

func (t *DefaultTheme) Primary() *Style   { return t.styles[primary] }
func (t *DefaultTheme) Secondary() *Style { return t.styles[secondary] }
func (t *DefaultTheme) Success() *Style   { return t.styles[success] }
func (t *DefaultTheme) Error() *Style     { return t.styles[failure] }
func (t *DefaultTheme) Warning() *Style   { return t.styles[warning] }
func (t *DefaultTheme) Info() *Style      { return t.styles[info] }
func (t *DefaultTheme) Subtle() *Style    { return t.styles[subtle] }

func (t *DefaultTheme) Writer() io.Writer { return t.writer }
func (t *DefaultTheme) IsEnabled() bool   { return t.enabled }
