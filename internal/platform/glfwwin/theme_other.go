//go:build !windows && !darwin

package glfwwin

import "glint/internal/platform"

// No portable appearance query exists on the remaining desktop targets;
// freedesktop portals vary too much between environments to trust.
func systemColorScheme() platform.ColorScheme {
	return platform.SchemeUnknown
}

func startThemeMonitor(_ *Backend) {}
