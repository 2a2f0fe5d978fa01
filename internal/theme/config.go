package theme

import "sync"

// Name identifies a built-in theme, as set by ui.theme in the config file
type Name string

const (
	Default      Name = "default"
	Professional Name = "professional"
)

var (
	mu      sync.Mutex
	current Theme
)

// GetTheme returns the process-wide theme, the default one until SetTheme
// is called.
func GetTheme() Theme {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		current = NewDefaultTheme()
	}
	return current
}

// SetTheme replaces the process-wide theme. nil restores the default.
func SetTheme(t Theme) {
	mu.Lock()
	defer mu.Unlock()
	current = t
}

// SetThemeByName selects a built-in theme. Unknown names get the
// professional theme.
func SetThemeByName(name Name) {
	if name == Default {
		SetTheme(NewDefaultTheme())
		return
	}
	SetTheme(NewProfessionalTheme())
}
