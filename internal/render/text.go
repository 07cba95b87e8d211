package render

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

type faceKey struct {
	size int
	bold bool
}

// FaceCache parses the Go fonts once and caches sized faces. When parsing
// fails it degrades to the fixed basicfont face rather than erroring.
type FaceCache struct {
	regular *opentype.Font
	bold    *opentype.Font
	faces   map[faceKey]font.Face
}

func NewFaceCache() *FaceCache {
	c := &FaceCache{faces: map[faceKey]font.Face{}}
	if reg, err := opentype.Parse(goregular.TTF); err == nil {
		c.regular = reg
	}
	if bol, err := opentype.Parse(gobold.TTF); err == nil {
		c.bold = bol
	}
	return c
}

func (c *FaceCache) Face(sizePt int, bold bool) font.Face {
	if sizePt <= 0 {
		sizePt = 12
	}
	key := faceKey{size: sizePt, bold: bold}
	if f, ok := c.faces[key]; ok {
		return f
	}

	src := c.regular
	if bold && c.bold != nil {
		src = c.bold
	}
	if src == nil {
		return basicfont.Face7x13
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    float64(sizePt),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	c.faces[key] = f
	return f
}

// DrawText renders s with the baseline at (x, baseline).
func (fb *FrameBuffer) DrawText(face font.Face, x, baseline int, s string, c color.RGBA) {
	dst := &image.RGBA{
		Pix:    fb.Pixels,
		Stride: fb.W * 4,
		Rect:   image.Rect(0, 0, fb.W, fb.H),
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

// MeasureText returns the advance width of s in pixels.
func MeasureText(face font.Face, s string) int {
	return font.MeasureString(face, s).Round()
}
