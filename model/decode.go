package model

import (
	"bytes"
	"encoding/json"
	"io"
	"math"

	"github.com/pkg/errors"
)

// responseKeys mark a document as a full conversion response rather than a
// bare batch.
var responseKeys = []string{"job_id", "instrument_files", "visualization_data"}

// noteJSON accepts any JSON number for pitch so float-producing converters
// still decode.
type noteJSON struct {
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
	Pitch    float64 `json:"pitch"`
}

// UnmarshalJSON rounds a fractional pitch to the nearest key. Pitches outside
// the int32 range are rejected.
func (n *NoteEvent) UnmarshalJSON(data []byte) error {
	var raw noteJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p := math.Round(raw.Pitch)
	if p < math.MinInt32 || p > math.MaxInt32 {
		return errors.Errorf("pitch %v out of range", raw.Pitch)
	}
	*n = NoteEvent{Position: raw.Position, Duration: raw.Duration, Pitch: int(p)}
	return nil
}

// DecodeTrack decodes notes one at a time, dropping the ones that don't
// decode. It fails only when data is not an array.
func DecodeTrack(data json.RawMessage) (InstrumentTrack, int, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, 0, err
	}
	track := make(InstrumentTrack, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			skipped++
			continue
		}
		var n NoteEvent
		if err := json.Unmarshal(raw, &n); err != nil {
			skipped++
			continue
		}
		track = append(track, n)
	}
	return track, skipped, nil
}

// DecodeVisualization decodes an instrument to notes object. Null is an
// empty batch. The int is the number of notes dropped across all tracks.
func DecodeVisualization(data json.RawMessage) (VisualizationBatch, int, error) {
	batch := make(VisualizationBatch)
	if len(bytes.TrimSpace(data)) == 0 {
		return batch, 0, nil
	}
	var tracks map[string]json.RawMessage
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, 0, err
	}
	skipped := 0
	for instrument, raw := range tracks {
		track, n, err := DecodeTrack(raw)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "could not decode notes for %v", instrument)
		}
		batch[instrument] = track
		skipped += n
	}
	return batch, skipped, nil
}

// UnmarshalJSON decodes the visualization data leniently and records how many
// notes were dropped in Skipped.
func (c *ConvertResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		JobID             string                     `json:"job_id"`
		InstrumentFiles   map[string]InstrumentFiles `json:"instrument_files"`
		VisualizationData json.RawMessage            `json:"visualization_data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	batch, skipped, err := DecodeVisualization(raw.VisualizationData)
	if err != nil {
		return errors.Wrap(err, "could not decode visualization_data")
	}
	*c = ConvertResponse{
		JobID:             raw.JobID,
		InstrumentFiles:   raw.InstrumentFiles,
		VisualizationData: batch,
		Skipped:           skipped,
	}
	return nil
}

// DecodeBatch reads either a full conversion response or a bare batch. A
// response without visualization data is an empty batch. Notes that don't
// decode are dropped and counted.
func DecodeBatch(r io.Reader) (VisualizationBatch, int, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, 0, errors.Wrap(err, "could not decode visualization data")
	}

	for _, key := range responseKeys {
		if _, ok := raw[key]; !ok {
			continue
		}
		batch, skipped, err := DecodeVisualization(raw["visualization_data"])
		if err != nil {
			return nil, 0, errors.Wrap(err, "could not decode visualization_data")
		}
		return batch, skipped, nil
	}

	batch := make(VisualizationBatch)
	skipped := 0
	for instrument, data := range raw {
		track, n, err := DecodeTrack(data)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "could not decode notes for %v", instrument)
		}
		batch[instrument] = track
		skipped += n
	}
	return batch, skipped, nil
}
