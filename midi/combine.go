package midi

import (
	"io"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/jsphweid/stemviz/util"
)

const TicksPerQuarter = 480

// General MIDI programs per instrument
var programs = map[string]uint8{
	"piano":  0,  // Acoustic Grand Piano
	"guitar": 24, // Acoustic Guitar (nylon)
	"bass":   32, // Acoustic Bass
}

// ProgramNumber returns the General MIDI program for an instrument,
// defaulting to the grand piano.
func ProgramNumber(instrument string) uint8 {
	return programs[instrument]
}

// Part is one instrument's source file for Combine.
type Part struct {
	Instrument string
	File       *smf.SMF
}

// Combine merges the parts into one multitrack file, one track per part.
// Each track starts with a program change for its instrument on every
// channel it uses; program changes from the source are dropped.
func Combine(parts []Part) (*smf.SMF, error) {
	res := smf.New()
	res.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	for _, part := range parts {
		track := combineTrack(part)
		if err := res.Add(track); err != nil {
			return nil, errors.Wrapf(err, "could not add %v track", part.Instrument)
		}
	}
	return res, nil
}

func combineTrack(part Part) smf.Track {
	srcResolution := int64(TicksPerQuarter)
	if mt, ok := part.File.TimeFormat.(smf.MetricTicks); ok && mt > 0 {
		srcResolution = int64(mt)
	}

	var kept []timedEvent
	channels := make(map[uint8]bool)
	for _, evt := range flatten(part.File) {
		if isEndOfTrack(evt.msg) || evt.msg.Is(midi.ProgramChangeMsg) {
			continue
		}
		if ch, ok := channelOf(evt.msg); ok {
			channels[ch] = true
		}
		kept = append(kept, evt)
	}
	if len(channels) == 0 {
		channels[0] = true
	}

	var track smf.Track
	program := ProgramNumber(part.Instrument)
	for _, ch := range util.GetKeys(channels) {
		track.Add(0, midi.ProgramChange(ch, program))
	}

	var last int64
	for _, evt := range kept {
		scaled := evt.ticks * TicksPerQuarter / srcResolution
		track.Add(uint32(scaled-last), evt.msg)
		last = scaled
	}
	track.Close(0)
	return track
}

func isEndOfTrack(msg smf.Message) bool {
	return len(msg) >= 2 && msg[0] == 0xFF && msg[1] == 0x2F
}

// channelOf reports the channel of a channel voice message.
func channelOf(msg smf.Message) (uint8, bool) {
	if len(msg) == 0 || msg[0] < 0x80 || msg[0] >= 0xF0 {
		return 0, false
	}
	return msg[0] & 0x0F, true
}

// Write encodes s as a standard midi file.
func Write(s *smf.SMF, w io.Writer) error {
	_, err := s.WriteTo(w)
	return errors.Wrap(err, "could not write midi file")
}
