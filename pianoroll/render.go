package pianoroll

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jsphweid/stemviz/model"
	"github.com/jsphweid/stemviz/pitch"
	"github.com/jsphweid/stemviz/util"
)

// Renderer draws piano rolls. It holds no state between calls.
type Renderer struct {
	cfg Config
	log *zap.Logger
}

func New(opts ...Option) *Renderer {
	r := &Renderer{cfg: DefaultConfig(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	r.cfg = r.cfg.withDefaults()
	return r
}

func (r *Renderer) Config() Config {
	return r.cfg
}

// Stats describes what a single Render call drew.
type Stats struct {
	Dimensions
	Notes   int
	Skipped int
	Labels  int
}

// Render clears c and draws notes onto it with the grid and pitch labels.
// Malformed notes are skipped, never fatal.
func (r *Renderer) Render(instrument string, notes []model.NoteEvent, c Canvas) Stats {
	stats := Stats{Dimensions: r.Layout(notes, c.ContainerWidth())}
	c.Reset(stats.Width, stats.Height)

	if !r.cfg.GridOverNotes {
		r.drawGrid(c, stats.Dimensions)
	}

	for i, n := range notes {
		n, ok := sanitize(n)
		if !ok {
			stats.Skipped++
			r.log.Debug("skipping malformed note",
				zap.String("instrument", instrument),
				zap.Int("index", i),
				zap.Float64("position", notes[i].Position),
				zap.Float64("duration", notes[i].Duration))
			continue
		}
		r.drawNote(c, stats.Dimensions, n)
		stats.Notes++
	}

	if r.cfg.GridOverNotes {
		r.drawGrid(c, stats.Dimensions)
	}

	stats.Labels = r.drawLabels(c, stats.Dimensions)
	return stats
}

// RowBottom maps a pitch to the y of its row's bottom edge. Higher pitches
// get smaller y.
func (r *Renderer) RowBottom(p int, height int) int {
	return height - (p-r.cfg.PitchOffset)*r.cfg.NoteHeight
}

func (r *Renderer) drawNote(c Canvas, dim Dimensions, n model.NoteEvent) {
	x := n.Position * r.cfg.TimeScale
	w := n.Duration * r.cfg.TimeScale
	if w < 1 {
		w = 1
	}
	h := float64(r.cfg.NoteHeight)
	bottom := float64(r.RowBottom(n.Pitch, dim.Height))
	c.FillRect(x, bottom-h, w, h, r.cfg.NoteColor)
}

// sizer is a canvas that knows how much of the layout it actually holds.
type sizer interface {
	Size() (width, height int)
}

// maxGridSpan bounds grid loops on canvases that don't report a size.
const maxGridSpan = 1 << 24

// gridSpan is the part of the layout the grid is drawn over.
func gridSpan(c Canvas, dim Dimensions) (int, int) {
	w, h := util.Min(dim.Width, maxGridSpan), util.Min(dim.Height, maxGridSpan)
	if s, ok := c.(sizer); ok {
		sw, sh := s.Size()
		w, h = util.Min(w, sw), util.Min(h, sh)
	}
	return w, h
}

func (r *Renderer) drawGrid(c Canvas, dim Dimensions) {
	w, h := gridSpan(c, dim)
	for x := 0; x <= w; x += r.cfg.GridStep {
		c.VLine(x, 0, h, r.cfg.GridColor)
	}
	for y := 0; y <= h; y += r.cfg.NoteHeight {
		c.HLine(y, 0, w, r.cfg.GridColor)
	}
}

func (r *Renderer) drawLabels(c Canvas, dim Dimensions) int {
	rows := dim.rows(r.cfg.NoteHeight)
	for p := r.cfg.PitchOffset; p < r.cfg.PitchOffset+rows; p++ {
		y := r.RowBottom(p, dim.Height) - r.cfg.LabelLift
		c.Text(pitch.Name(p), r.cfg.LabelX, y, r.cfg.LabelColor)
	}
	return rows
}

// RenderVisualization renders every instrument of the batch onto the surface
// named SurfaceID(instrument). Instruments without a surface are reported in
// the returned error and do not stop the rest of the batch.
func (r *Renderer) RenderVisualization(batch model.VisualizationBatch, surfaces SurfaceProvider) error {
	var errs error
	for _, instrument := range util.GetKeys(batch) {
		id := SurfaceID(instrument)
		c, ok := surfaces.Surface(id)
		if !ok {
			r.log.Warn("missing drawing surface", zap.String("instrument", instrument), zap.String("surface", id))
			errs = multierr.Append(errs, &MissingSurfaceError{Instrument: instrument, SurfaceID: id})
			continue
		}

		stats := r.Render(instrument, batch[instrument], c)
		r.log.Debug("rendered piano roll",
			zap.String("instrument", instrument),
			zap.Int("width", stats.Width),
			zap.Int("height", stats.Height),
			zap.Int("notes", stats.Notes),
			zap.Int("skipped", stats.Skipped))
	}
	return errs
}
