//go:build windows

package glfwwin

import (
	"golang.org/x/sys/windows/registry"

	"glint/internal/platform"
)

const (
	themeRegKey  = `Software\Microsoft\Windows\CurrentVersion\Themes\Personalize`
	themeRegName = `AppsUseLightTheme`
)

func systemColorScheme() platform.ColorScheme {
	k, err := registry.OpenKey(registry.CURRENT_USER, themeRegKey, registry.QUERY_VALUE)
	if err != nil {
		return platform.SchemeUnknown
	}
	defer k.Close()
	val, _, err := k.GetIntegerValue(themeRegName)
	if err != nil {
		return platform.SchemeUnknown
	}
	if val == 0 {
		return platform.SchemeDark
	}
	return platform.SchemeLight
}

func startThemeMonitor(_ *Backend) {}
