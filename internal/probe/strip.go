package probe

import (
	"image"
	"image/draw"
)

func newStrip(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func drawAt(dst *image.RGBA, src image.Image, x, y int) {
	r := src.Bounds()
	draw.Draw(dst, image.Rect(x, y, x+r.Dx(), y+r.Dy()), src, r.Min, draw.Src)
}
