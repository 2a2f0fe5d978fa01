package theme

import (
	"strings"
	"unicode/utf8"

	"github.com/qnkhuat/deepread/internal/config"
)

const bannerWidth = 40

// DisplayBanner prints the welcome box shown by the bare root command
func DisplayBanner(t Theme, appCfg *config.AppConfig) {
	banner(t, "Welcome to "+appCfg.Name, bannerWidth, "Read papers with an LLM at your side")
}

// banner draws title and subtitles in a double-lined box at least width
// columns wide.
func banner(t Theme, title string, width int, subtitles ...string) {
	for _, s := range append([]string{title}, subtitles...) {
		if n := utf8.RuneCountInString(s) + 4; n > width {
			width = n
		}
	}
	inner := width - 2

	t.Primary().Println("╔" + strings.Repeat("═", inner) + "╗")
	t.Primary().Println("║" + center(title, inner) + "║")
	if len(subtitles) > 0 {
		t.Primary().Println("║" + strings.Repeat("─", inner) + "║")
		for _, s := range subtitles {
			t.Secondary().Println("║" + center(s, inner) + "║")
		}
	}
	t.Primary().Println("╚" + strings.Repeat("═", inner) + "╝")
}

// center pads s with spaces to n columns, the extra space going right.
func center(s string, n int) string {
	gap := n - utf8.RuneCountInString(s)
	if gap <= 0 {
		return s
	}
	left := gap / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
}
