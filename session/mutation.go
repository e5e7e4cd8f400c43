package session

// Mutation is a semantic edit sent through the dispatcher. Each action
// kind is its own variant with a fixed payload shape; all of them go
// through Manager.Apply.
type Mutation interface {
	mutationName() string
}

// PatchTrack updates volume/pan/mute/solo/sample on one of the four lanes
type PatchTrack struct {
	TrackID    int
	Volume     *float64
	Pan        *float64
	Mute       *bool
	Solo       *bool
	SampleID   *string
	SampleName *string
}

// UpdateMeta changes bpm/bars/swing
type UpdateMeta struct {
	BPM   *float64
	Bars  *int
	Swing *float64
}

// ToggleDrum toggles a drum hit at a tick (created if absent, deleted if
// present). StartTick is snapped to the active grid before dispatch.
type ToggleDrum struct {
	StartTick int
	Drum      string // kick | snare | hihat
	SampleID  string // overrides Drum when set
	TrackID   int    // defaults to the drum lane (1)
	Velocity  float64
}

// SetPitch changes a melodic event's pitch
type SetPitch struct {
	EventID string
	Pitch   string
}

// SetStart moves an event to an absolute start tick
type SetStart struct {
	EventID   string
	StartTick int
}

// ApplyPattern applies a named drum pattern over a bar range
type ApplyPattern struct {
	Pattern string
	Bars    int
	BaseBar int
}

// Chat runs a free-text command through the server's planner
type Chat struct {
	Message string
}

// Undo reverts the last n edits
type Undo struct {
	Steps int
}

func (PatchTrack) mutationName() string   { return "patch_track" }
func (UpdateMeta) mutationName() string   { return "update_meta" }
func (ToggleDrum) mutationName() string   { return "toggle_drum" }
func (SetPitch) mutationName() string     { return "set_pitch" }
func (SetStart) mutationName() string     { return "set_start" }
func (ApplyPattern) mutationName() string { return "apply_pattern" }
func (Chat) mutationName() string         { return "chat" }
func (Undo) mutationName() string         { return "undo" }
