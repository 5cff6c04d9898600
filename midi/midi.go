package midi

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/jsphweid/stemviz/model"
)

func ReadMidiFile(filepath string) (*smf.SMF, error) {
	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrap(err, "Error reading midi file")
	}
	return Read(bytes.NewReader(dat))
}

func Read(r io.Reader) (s *smf.SMF, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if rec := recover(); rec != nil {
			s, e = nil, fmt.Errorf("Error parsing midi file... %v", rec)
		}
	}()

	res, err := smf.ReadFrom(r)
	if err != nil {
		return nil, errors.Wrap(err, "Error parsing midi file")
	}
	return res, nil
}

type timedEvent struct {
	ticks int64
	msg   smf.Message
}

// flatten merges all tracks into one list ordered by absolute tick. Events
// at the same tick keep track order.
func flatten(s *smf.SMF) []timedEvent {
	var events []timedEvent
	for _, track := range s.Tracks {
		var absTicks int64
		for _, event := range track {
			absTicks += int64(event.Delta)
			events = append(events, timedEvent{ticks: absTicks, msg: event.Message})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].ticks < events[j].ticks
	})
	return events
}

// ExtractNotes pairs note starts with their ends and reports position and
// duration in seconds. Notes are ordered by when they end. A key struck again
// before it is released restarts the note; ends with no open start are
// ignored.
func ExtractNotes(s *smf.SMF) []model.NoteEvent {
	notes := make([]model.NoteEvent, 0)
	started := make(map[uint8]float64)

	for _, evt := range flatten(s) {
		now := float64(s.TimeAt(evt.ticks)) / 1e6
		var channel, key, velocity uint8
		isEnd := false
		switch {
		case evt.msg.GetNoteOn(&channel, &key, &velocity):
			if velocity > 0 {
				started[key] = now
				continue
			}
			isEnd = true
		case evt.msg.GetNoteOff(&channel, &key, &velocity):
			isEnd = true
		}
		if !isEnd {
			continue
		}

		start, ok := started[key]
		if !ok {
			continue
		}
		delete(started, key)
		notes = append(notes, model.NoteEvent{
			Position: start,
			Duration: now - start,
			Pitch:    int(key),
		})
	}
	return notes
}

// ExtractNotesFromFile reads a midi file and extracts its notes.
func ExtractNotesFromFile(path string) ([]model.NoteEvent, error) {
	s, err := ReadMidiFile(path)
	if err != nil {
		return nil, err
	}
	return ExtractNotes(s), nil
}
