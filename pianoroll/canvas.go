package pianoroll

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/jsphweid/stemviz/util"
)

// Canvas is a drawing surface a piano roll is rendered onto. Coordinates
// grow rightwards and downwards from the top left corner.
type Canvas interface {
	// ContainerWidth is the width the surface is displayed at.
	ContainerWidth() int
	// Reset clears the surface and resizes it.
	Reset(width, height int)
	FillRect(x, y, w, h float64, c color.Color)
	HLine(y, x0, x1 int, c color.Color)
	VLine(x, y0, y1 int, c color.Color)
	Text(s string, x, y int, c color.Color)
}

// Raster allocation limits. Layouts wider than this are clipped by the
// raster only, the computed dimensions are unaffected.
const (
	MaxRasterWidth  = 32768
	MaxRasterHeight = 4096
)

// RasterCanvas is a Canvas backed by an in-memory RGBA image.
type RasterCanvas struct {
	container  int
	background color.Color
	img        *image.RGBA
}

func NewRasterCanvas(containerWidth int, background color.Color) *RasterCanvas {
	return &RasterCanvas{container: containerWidth, background: background}
}

func (rc *RasterCanvas) ContainerWidth() int {
	return rc.container
}

func (rc *RasterCanvas) Reset(width, height int) {
	width = util.Clamp(width, 0, MaxRasterWidth)
	height = util.Clamp(height, 0, MaxRasterHeight)
	rc.img = image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(rc.img, rc.img.Bounds(), image.NewUniform(rc.background), image.Point{}, draw.Src)
}

// Image is nil until the canvas has been reset at least once.
func (rc *RasterCanvas) Image() *image.RGBA {
	return rc.img
}

// Size is the allocated raster size, 0x0 before the first Reset.
func (rc *RasterCanvas) Size() (int, int) {
	if rc.img == nil {
		return 0, 0
	}
	b := rc.img.Bounds()
	return b.Dx(), b.Dy()
}

func (rc *RasterCanvas) FillRect(x, y, w, h float64, c color.Color) {
	if rc.img == nil {
		return
	}
	r := image.Rect(pixel(x), pixel(y), pixel(x+w), pixel(y+h))
	if r.Dx() == 0 {
		r.Max.X = r.Min.X + 1
	}
	draw.Draw(rc.img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func (rc *RasterCanvas) HLine(y, x0, x1 int, c color.Color) {
	if rc.img == nil {
		return
	}
	draw.Draw(rc.img, image.Rect(x0, y, x1+1, y+1), image.NewUniform(c), image.Point{}, draw.Src)
}

func (rc *RasterCanvas) VLine(x, y0, y1 int, c color.Color) {
	if rc.img == nil {
		return
	}
	draw.Draw(rc.img, image.Rect(x, y0, x+1, y1+1), image.NewUniform(c), image.Point{}, draw.Src)
}

// Text draws s with its baseline starting at (x, y).
func (rc *RasterCanvas) Text(s string, x, y int, c color.Color) {
	if rc.img == nil {
		return
	}
	d := &font.Drawer{
		Dst:  rc.img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func (rc *RasterCanvas) WritePNG(w io.Writer) error {
	if rc.img == nil {
		return errors.New("canvas has not been drawn")
	}
	return errors.Wrap(png.Encode(w, rc.img), "could not encode png")
}

// pixel rounds a float coordinate, keeping far off-canvas values bounded.
func pixel(v float64) int {
	return int(math.Round(util.Clamp(v, -1, MaxRasterWidth+1)))
}
