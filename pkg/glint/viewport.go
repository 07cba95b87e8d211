package glint

import "github.com/google/uuid"

// ViewportID is the stable identity of a logical window surface. It is
// independent of the native window handle, so several viewports can share
// one native window when embedding is on.
type ViewportID string

// RootViewportID is the viewport created at startup. Closing it ends the
// application.
const RootViewportID ViewportID = "root"

// NewViewportID mints an identity for a viewport the UI pass did not name.
func NewViewportID() ViewportID {
	return ViewportID(uuid.NewString())
}

// ViewportConfig describes a viewport the UI pass wants opened.
type ViewportConfig struct {
	ID       ViewportID
	Title    string
	WidthPx  int
	HeightPx int
}
