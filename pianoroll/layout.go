package pianoroll

import (
	"math"

	"github.com/jsphweid/stemviz/model"
	"github.com/jsphweid/stemviz/util"
)

// Dimensions is the computed raster size for one track.
type Dimensions struct {
	Width     int
	Height    int
	MaxExtent float64
}

// rows is the number of pitch rows that fit the height.
func (d Dimensions) rows(noteHeight int) int {
	return d.Height / noteHeight
}

// maxWidth keeps the width conversion to int in range.
const maxWidth = 1 << 62

// Layout sizes the canvas so the furthest note is never clipped horizontally.
func (r *Renderer) Layout(notes []model.NoteEvent, containerWidth int) Dimensions {
	var dim Dimensions
	topPitch := -1
	for _, n := range notes {
		n, ok := sanitize(n)
		if !ok {
			continue
		}
		dim.MaxExtent = math.Max(dim.MaxExtent, n.End())
		if n.Pitch <= maxPitch {
			topPitch = util.Max(topPitch, n.Pitch)
		}
	}

	width := math.Ceil(dim.MaxExtent*r.cfg.TimeScale + r.cfg.Margin)
	dim.Width = util.Max(containerWidth, int(util.Min(width, maxWidth)))

	dim.Height = r.cfg.Height
	if r.cfg.FitPitchRange && topPitch >= r.cfg.PitchOffset {
		need := (topPitch - r.cfg.PitchOffset + 1) * r.cfg.NoteHeight
		dim.Height = util.Max(dim.Height, need)
	}
	return dim
}

// sanitize clamps a note into drawable form. Notes with a non-finite
// position or duration are rejected.
func sanitize(n model.NoteEvent) (model.NoteEvent, bool) {
	if !finite(n.Position) || !finite(n.Duration) {
		return n, false
	}
	n.Position = math.Max(n.Position, 0)
	n.Duration = math.Max(n.Duration, 0)
	return n, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
