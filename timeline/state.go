package timeline

// TrackType distinguishes drum lanes from melodic lanes
type TrackType string

const (
	TrackDrum    TrackType = "drum"
	TrackMelodic TrackType = "melodic"
)

// NumTracks is fixed: Drums, Bass, Pad, Lead
const NumTracks = 4

// Meta holds project-wide timing info
type Meta struct {
	TimeSignature []int   `json:"time_signature"`
	BPM           float64 `json:"bpm"`
	Bars          int     `json:"bars"`
	TicksPerBeat  int     `json:"ticks_per_beat"`
	TicksPerBar   int     `json:"ticks_per_bar"`
	TotalTicks    int     `json:"total_ticks"`
	Swing         float64 `json:"swing"`
}

// Track is one of the four fixed lanes
type Track struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	Type            TrackType `json:"type"`
	Volume          float64   `json:"volume"`
	Pan             float64   `json:"pan"`
	Mute            bool      `json:"mute"`
	Solo            bool      `json:"solo"`
	SampleName      string    `json:"sample_name"`
	CurrentSampleID string    `json:"current_sample_id"`
}

// Event is a placed note or drum hit
type Event struct {
	ID           string    `json:"id"`
	TrackID      int       `json:"track_id"`
	StartTick    int       `json:"start_tick"`
	DurationTick int       `json:"duration_tick"`
	Type         TrackType `json:"type"`
	SampleID     string    `json:"sample_id"`
	Velocity     float64   `json:"velocity"`
	Pitch        string    `json:"pitch,omitempty"` // melodic only
}

// Sample is an immutable generated sample, keyed by id in ProjectState.Samples
type Sample struct {
	Kind       string `json:"kind"`
	Instrument string `json:"instrument"`
	BasePitch  string `json:"base_pitch"`
	Prompt     string `json:"prompt,omitempty"`
	Path       string `json:"path"`
}

// ProjectState is the server-confirmed source of truth.
// It is always replaced wholesale from a server response, never patched.
type ProjectState struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Meta    Meta              `json:"meta"`
	Tracks  []Track           `json:"tracks"`
	Events  []Event           `json:"events"`
	Samples map[string]Sample `json:"samples"`
}

// ClampTick keeps a tick inside the project range
func (m Meta) ClampTick(tick int) int {
	if tick < 0 {
		return 0
	}
	if tick > m.TotalTicks {
		return m.TotalTicks
	}
	return tick
}

// Event returns the event with the given id, or nil
func (s *ProjectState) Event(id string) *Event {
	for i := range s.Events {
		if s.Events[i].ID == id {
			return &s.Events[i]
		}
	}
	return nil
}

// Track returns the track with the given id, or nil
func (s *ProjectState) Track(id int) *Track {
	for i := range s.Tracks {
		if s.Tracks[i].ID == id {
			return &s.Tracks[i]
		}
	}
	return nil
}

// TrackEvents returns the events on a track, in slice order
func (s *ProjectState) TrackEvents(trackID int) []Event {
	var out []Event
	for _, e := range s.Events {
		if e.TrackID == trackID {
			out = append(out, e)
		}
	}
	return out
}
