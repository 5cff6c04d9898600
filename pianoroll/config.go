package pianoroll

import (
	"image/color"

	"go.uber.org/zap"
	"golang.org/x/image/colornames"
)

// Config holds the fixed drawing parameters of a piano roll.
type Config struct {
	TimeScale   float64 // pixels per time unit
	Margin      float64 // padding after the last note
	Height      int     // minimum canvas height
	NoteHeight  int     // pixels per pitch row
	PitchOffset int     // MIDI number of the bottom row
	GridStep    int     // pixels between vertical grid lines
	LabelX      int
	LabelLift   int // label baseline distance above its row bottom

	// FitPitchRange grows the canvas so the highest pitch (up to 127) of a
	// track gets a row. When false the height is always Height.
	FitPitchRange bool
	// GridOverNotes strokes the grid after the note fills.
	GridOverNotes bool

	NoteColor  color.Color
	GridColor  color.Color
	LabelColor color.Color
}

const maxPitch = 127

func DefaultConfig() Config {
	return Config{
		TimeScale:     5,
		Margin:        100,
		Height:        200,
		NoteHeight:    10,
		PitchOffset:   21,
		GridStep:      50,
		LabelX:        5,
		LabelLift:     2,
		FitPitchRange: true,
		NoteColor:     color.RGBA{R: 0x3f, G: 0x51, B: 0xb5, A: 0xff},
		GridColor:     color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff},
		LabelColor:    colornames.Black,
	}
}

// Option modifies a Renderer.
type Option func(*Renderer)

func WithConfig(cfg Config) Option {
	return func(r *Renderer) {
		r.cfg = cfg
	}
}

// WithFixedHeight keeps every canvas at cfg.Height regardless of pitch range.
func WithFixedHeight() Option {
	return func(r *Renderer) {
		r.cfg.FitPitchRange = false
	}
}

func WithGridOverNotes() Option {
	return func(r *Renderer) {
		r.cfg.GridOverNotes = true
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		r.log = l
	}
}

// withDefaults fills zero steps that would stall the grid and label loops.
func (cfg Config) withDefaults() Config {
	def := DefaultConfig()
	if cfg.NoteHeight <= 0 {
		cfg.NoteHeight = def.NoteHeight
	}
	if cfg.GridStep <= 0 {
		cfg.GridStep = def.GridStep
	}
	if cfg.NoteColor == nil {
		cfg.NoteColor = def.NoteColor
	}
	if cfg.GridColor == nil {
		cfg.GridColor = def.GridColor
	}
	if cfg.LabelColor == nil {
		cfg.LabelColor = def.LabelColor
	}
	return cfg
}
