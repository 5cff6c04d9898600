package model

// NoteEvent is one played note. Position and Duration share the time unit of
// the batch they arrive in (seconds for batches produced by the server).
type NoteEvent struct {
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
	Pitch    int     `json:"pitch"`
}

// End is the time the note stops sounding.
func (n NoteEvent) End() float64 {
	return n.Position + n.Duration
}

// InstrumentTrack keeps source insertion order, it is not sorted by time.
type InstrumentTrack = []NoteEvent

// VisualizationBatch maps instrument name to its notes for one conversion.
type VisualizationBatch = map[string]InstrumentTrack

// Instruments the separator produces stems for, in response order.
var Instruments = []string{"piano", "guitar", "bass"}
