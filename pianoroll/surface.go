package pianoroll

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/image/colornames"

	"github.com/jsphweid/stemviz/util"
)

// SurfaceID is the name an instrument's drawing surface is registered under.
func SurfaceID(instrument string) string {
	return instrument + "-visualization"
}

// SurfaceProvider resolves a drawing surface by its id.
type SurfaceProvider interface {
	Surface(id string) (Canvas, bool)
}

// MissingSurfaceError is reported when no surface is registered for an
// instrument in a batch. Other instruments still render.
type MissingSurfaceError struct {
	Instrument string
	SurfaceID  string
}

func (e *MissingSurfaceError) Error() string {
	return fmt.Sprintf("no drawing surface %q for instrument %q", e.SurfaceID, e.Instrument)
}

// Board is a set of raster surfaces keyed by surface id.
type Board struct {
	background color.Color
	canvases   map[string]*RasterCanvas
}

func NewBoard() *Board {
	return &Board{
		background: colornames.White,
		canvases:   make(map[string]*RasterCanvas),
	}
}

// NewInstrumentBoard attaches a surface for every instrument.
func NewInstrumentBoard(containerWidth int, instruments ...string) *Board {
	b := NewBoard()
	for _, instrument := range instruments {
		b.Attach(SurfaceID(instrument), containerWidth)
	}
	return b
}

// Attach registers a surface, replacing any previous one with the same id.
func (b *Board) Attach(id string, containerWidth int) *RasterCanvas {
	c := NewRasterCanvas(containerWidth, b.background)
	b.canvases[id] = c
	return c
}

func (b *Board) Surface(id string) (Canvas, bool) {
	c, ok := b.canvases[id]
	if !ok {
		return nil, false
	}
	return c, true
}

func (b *Board) Raster(id string) (*RasterCanvas, bool) {
	c, ok := b.canvases[id]
	return c, ok
}

func (b *Board) IDs() []string {
	return util.GetKeys(b.canvases)
}

// WritePNGs writes every drawn surface to dir as <id>.png and returns the
// written paths.
func (b *Board) WritePNGs(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "could not create %v", dir)
	}

	var written []string
	for _, id := range b.IDs() {
		c := b.canvases[id]
		if c.Image() == nil {
			continue
		}
		path := filepath.Join(dir, id+".png")
		if err := writePNG(path, c); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writePNG(path string, c *RasterCanvas) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "could not create %v", path)
	}
	defer f.Close()
	return c.WritePNG(f)
}
