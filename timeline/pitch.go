package timeline

import (
	"fmt"
	"strconv"
	"strings"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var noteOffsets = map[string]int{
	"C": 0, "C#": 1, "DB": 1, "D": 2, "D#": 3, "EB": 3, "E": 4,
	"F": 5, "F#": 6, "GB": 6, "G": 7, "G#": 8, "AB": 8, "A": 9,
	"A#": 10, "BB": 10, "B": 11,
}

// PitchName formats a MIDI note number as a name like "C4" (60 = C4)
func PitchName(note uint8) string {
	return fmt.Sprintf("%s%d", noteNames[note%12], int(note)/12-1)
}

// PitchNumber parses a name like "C4" or "f#3" into a MIDI note number
func PitchNumber(name string) (uint8, error) {
	s := strings.ToUpper(strings.TrimSpace(name))
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid pitch %q", name)
	}
	split := 1
	if len(s) > 2 && (s[1] == '#' || s[1] == 'B') {
		split = 2
	}
	off, ok := noteOffsets[s[:split]]
	if !ok {
		return 0, fmt.Errorf("invalid pitch %q", name)
	}
	octave, err := strconv.Atoi(s[split:])
	if err != nil {
		return 0, fmt.Errorf("invalid pitch %q", name)
	}
	n := (octave+1)*12 + off
	if n < 0 || n > 127 {
		return 0, fmt.Errorf("pitch %q out of MIDI range", name)
	}
	return uint8(n), nil
}

// ValidPitch reports whether a pitch name parses
func ValidPitch(name string) bool {
	_, err := PitchNumber(name)
	return err == nil
}
