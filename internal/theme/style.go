package theme

import (
	"io"

	"github.com/fatih/color"
)

// Style prints in one color combination to the theme's writer
type Style struct {
	color *color.Color
	w     io.Writer
}

func newStyle(w io.Writer, colored bool, attrs ...color.Attribute) *Style {
	c := color.New(attrs...)
	if colored {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return &Style{color: c, w: w}
}

func (s *Style) Print(a ...interface{}) {
	_, _ = s.color.Fprint(s.w, a...)
}

func (s *Style) Printf(format string, a ...interface{}) {
	_, _ = s.color.Fprintf(s.w, format, a...)
}

func (s *Style) Println(a ...interface{}) {
	_, _ = s.color.Fprintln(s.w, a...)
}

// Sprint returns the styled text without printing it
func (s *Style) Sprint(a ...interface{}) string {
	return s.color.Sprint(a...)
}

// Sprintf is the formatting variant of Sprint
func (s *Style) Sprintf(format string, a ...interface{}) string {
	return s.color.Sprintf(format, a...)
}
