package theme

import (
	"bytes"
	"testing"

	"github.com/qnkhuat/deepread/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestDisplayBanner(t *testing.T) {
	var buf bytes.Buffer
	DisplayBanner(NewPlainTheme(&buf), &config.AppConfig{Name: "DeepRead"})

	output := buf.String()
	assert.Contains(t, output, "Welcome to DeepRead")
	assert.Contains(t, output, "Read papers with an LLM at your side")
	assert.Contains(t, output, "╔═")
	assert.Contains(t, output, "╚═")
	assert.NotContains(t, output, "\x1b[", "plain theme prints no escape codes")
}

func TestBanner_WidensForLongTitles(t *testing.T) {
	var buf bytes.Buffer
	banner(NewPlainTheme(&buf), "My App", 4)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Len(t, lines, 3)
	assert.Equal(t, "║ My App ║", string(lines[1]))
}

func TestSetThemeByName(t *testing.T) {
	defer SetTheme(nil)

	SetThemeByName(Default)
	assert.NotNil(t, GetTheme())

	plain := NewPlainTheme(&bytes.Buffer{})
	SetTheme(plain)
	assert.Same(t, plain, GetTheme())
}

func TestCenter(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"ab", 6, "  ab  "},
		{"ab", 5, " ab  "},
		{"é", 3, " é "},
		{"toolong", 3, "toolong"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, center(tt.in, tt.n))
		})
	}
}
