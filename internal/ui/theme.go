package ui

import "image/color"

// Palette is the color set and metric block the demo chrome paints with.
type Palette struct {
	Background color.RGBA
	TitleBar   color.RGBA
	Content    color.RGBA
	Border     color.RGBA
	StatusBar  color.RGBA
	Accent     color.RGBA
	Text       color.RGBA
	TitleText  color.RGBA

	TitleHeightDp  int
	StatusHeightDp int
	PaddingDp      int
}

func Light() Palette {
	return Palette{
		Background:     color.RGBA{0xF3, 0xF5, 0xF8, 0xFF},
		TitleBar:       color.RGBA{0x2B, 0x57, 0x9A, 0xFF},
		Content:        color.RGBA{0xFF, 0xFF, 0xFF, 0xFF},
		Border:         color.RGBA{0xB2, 0xBF, 0xD0, 0xFF},
		StatusBar:      color.RGBA{0xEA, 0xEF, 0xF6, 0xFF},
		Accent:         color.RGBA{0x2B, 0x57, 0x9A, 0xFF},
		Text:           color.RGBA{0x2A, 0x38, 0x50, 0xFF},
		TitleText:      color.RGBA{0xF4, 0xF8, 0xFF, 0xFF},
		TitleHeightDp:  34,
		StatusHeightDp: 28,
		PaddingDp:      16,
	}
}

func Dark() Palette {
	return Palette{
		Background:     color.RGBA{0x1B, 0x1F, 0x26, 0xFF},
		TitleBar:       color.RGBA{0x10, 0x23, 0x40, 0xFF},
		Content:        color.RGBA{0x23, 0x28, 0x31, 0xFF},
		Border:         color.RGBA{0x3C, 0x44, 0x52, 0xFF},
		StatusBar:      color.RGBA{0x20, 0x26, 0x30, 0xFF},
		Accent:         color.RGBA{0x4D, 0x86, 0xCD, 0xFF},
		Text:           color.RGBA{0xD4, 0xDC, 0xE8, 0xFF},
		TitleText:      color.RGBA{0xE8, 0xEF, 0xF8, 0xFF},
		TitleHeightDp:  34,
		StatusHeightDp: 28,
		PaddingDp:      16,
	}
}
