package glint

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DeviceClass tells the context what kind of device it is running on, which
// decides the default viewport embedding policy.
type DeviceClass int

const (
	DeviceDesktop DeviceClass = iota
	DeviceMobile
	DeviceWeb
)

// Options configures a Loop and its Context. Zero value is not useful; start
// from DefaultOptions.
type Options struct {
	// Title is the root window title.
	Title string `toml:"title"`

	// WidthPx and HeightPx size the root window in physical pixels.
	WidthPx  int `toml:"width_px"`
	HeightPx int `toml:"height_px"`

	// FollowSystemTheme gates whether the host color scheme is consulted
	// at all. When false, theme queries report nothing.
	FollowSystemTheme bool `toml:"follow_system_theme"`

	// Accessibility enables translation of host accessibility events.
	Accessibility bool `toml:"accessibility"`

	// PersistMemory controls whether UI memory is saved on shutdown and
	// restored on startup.
	PersistMemory bool `toml:"persist_memory"`

	// Compression and Password select the on-disk snapshot envelope: a
	// compressed and, with a password, encrypted wrapper around the
	// persisted memory.
	Compression bool   `toml:"compression"`
	Password    string `toml:"password"`

	// Device overrides device-class detection when set via
	// DetectDeviceClass; it is not read from config files.
	Device DeviceClass `toml:"-"`
}

func DefaultOptions() Options {
	return Options{
		Title:             "glint",
		WidthPx:           800,
		HeightPx:          600,
		FollowSystemTheme: true,
		Accessibility:     true,
		PersistMemory:     true,
		Compression:       true,
		Device:            DetectDeviceClass(),
	}
}

// LoadOptionsFile overlays a TOML config file onto the defaults. A missing
// file is not an error; a malformed one is.
func LoadOptionsFile(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return opts, nil
	}
	if err != nil {
		return opts, fmt.Errorf("read options: %w", err)
	}
	if err := toml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse options: %w", err)
	}
	return opts, nil
}
