//go:build darwin

package glfwwin

import (
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"glint/internal/platform"
)

var globalPlist = filepath.Join(os.Getenv("HOME"), "Library/Preferences/.GlobalPreferences.plist")

// The AppleInterfaceStyle default only exists while dark mode is on, so a
// missing key reads as light.
func systemColorScheme() platform.ColorScheme {
	cmd := exec.Command("defaults", "read", "-g", "AppleInterfaceStyle")
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return platform.SchemeLight
		}
		return platform.SchemeUnknown
	}
	return platform.SchemeDark
}

// startThemeMonitor watches the global preferences plist and posts a
// theme-changed event when the appearance flips.
func startThemeMonitor(b *Backend) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Debug("glfwwin: theme monitor unavailable", "err", err)
		return
	}
	if err := watcher.Add(globalPlist); err != nil {
		slog.Debug("glfwwin: theme monitor unavailable", "err", err)
		_ = watcher.Close()
		return
	}
	go func() {
		defer watcher.Close()
		last := systemColorScheme()
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				if s := systemColorScheme(); s != last {
					last = s
					b.push(platform.Event{Type: platform.EventThemeChanged})
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
}
