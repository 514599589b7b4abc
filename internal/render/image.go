package render

import (
	"image"
	"image/color"
	"image/draw"
)

// ImageSurface renders frames into an RGBA image, for PNG snapshots and the
// window client.
type ImageSurface struct {
	Img *image.RGBA
}

// NewImageSurface allocates a w x h surface.
func NewImageSurface(w, h int) *ImageSurface {
	return &ImageSurface{Img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Size implements scene.Surface.
func (s *ImageSurface) Size() (int, int) {
	b := s.Img.Bounds()
	return b.Dx(), b.Dy()
}

// FillColumn implements scene.Surface.
func (s *ImageSurface) FillColumn(x, y0, y1 int, c color.RGBA) {
	r := image.Rect(x, y0, x+1, y1).Intersect(s.Img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(s.Img, r, image.NewUniform(c), image.Point{}, draw.Src)
}
