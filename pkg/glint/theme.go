package glint

import (
	"runtime"

	"glint/internal/platform"
)

// Theme is the visual theme derived from the host color scheme.
type Theme int

const (
	ThemeLight Theme = iota
	ThemeDark
)

// SystemTheme reports the host theme for a window. The second return is
// false when theme following is disabled, the window is gone, or the host
// does not expose a scheme.
func SystemTheme(win platform.Window, opts Options) (Theme, bool) {
	if !opts.FollowSystemTheme || win == nil {
		return ThemeLight, false
	}
	switch win.ColorScheme() {
	case platform.SchemeLight:
		return ThemeLight, true
	case platform.SchemeDark:
		return ThemeDark, true
	default:
		return ThemeLight, false
	}
}

// DetectDeviceClass guesses the device class from the build target.
func DetectDeviceClass() DeviceClass {
	switch runtime.GOOS {
	case "android", "ios":
		return DeviceMobile
	case "js":
		return DeviceWeb
	default:
		return DeviceDesktop
	}
}
