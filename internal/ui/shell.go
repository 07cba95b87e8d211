package ui

import "glint/internal/render"

type Layout struct {
	TitleH   int
	StatusH  int
	ContentX int
	ContentY int
	ContentW int
	ContentH int
	StatusY  int
}

func ComputeLayout(w, h int, pal Palette, scale float32) Layout {
	if scale <= 0 {
		scale = 1
	}
	dp := func(v int) int { return int(float32(v) * scale) }

	titleH := dp(pal.TitleHeightDp)
	statusH := dp(pal.StatusHeightDp)
	pad := dp(pal.PaddingDp)

	contentH := h - titleH - statusH - pad*2
	if contentH < 0 {
		contentH = 0
	}
	contentW := w - pad*2
	if contentW < 0 {
		contentW = 0
	}

	return Layout{
		TitleH:   titleH,
		StatusH:  statusH,
		ContentX: pad,
		ContentY: titleH + pad,
		ContentW: contentW,
		ContentH: contentH,
		StatusY:  h - statusH,
	}
}

// DrawChrome paints the window furniture: title bar, bordered content area,
// status bar, and the accent line under the title bar.
func DrawChrome(fb *render.FrameBuffer, pal Palette, scale float32) Layout {
	layout := ComputeLayout(fb.W, fb.H, pal, scale)

	fb.Clear(pal.Background)

	fb.FillRect(0, 0, fb.W, layout.TitleH, pal.TitleBar)
	accentH := int(2 * scale)
	if accentH < 1 {
		accentH = 1
	}
	fb.FillRect(0, layout.TitleH, fb.W, accentH, pal.Accent)

	fb.FillRect(layout.ContentX, layout.ContentY, layout.ContentW, layout.ContentH, pal.Content)
	fb.StrokeRect(layout.ContentX, layout.ContentY, layout.ContentW, layout.ContentH, 1, pal.Border)

	fb.FillRect(0, layout.StatusY, fb.W, layout.StatusH, pal.StatusBar)
	fb.StrokeRect(0, layout.StatusY, fb.W, layout.StatusH, 1, pal.Border)

	return layout
}
