package pitch

import "strconv"

var classNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Name returns the scientific pitch name of a MIDI note number, 60 being C4.
// Division is floored so negative numbers still give a valid label.
func Name(midiNumber int) string {
	octave := floorDiv(midiNumber, 12) - 1
	class := midiNumber - floorDiv(midiNumber, 12)*12
	return classNames[class] + strconv.Itoa(octave)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
