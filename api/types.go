package api

import "gridseq/timeline"

// StateResponse wraps every mutation response: the server returns the
// full ProjectState, never a partial patch.
type StateResponse struct {
	State timeline.ProjectState `json:"state"`
}

// ChatResponse carries the new state plus a human-readable action log
type ChatResponse struct {
	State    timeline.ProjectState `json:"state"`
	Messages []string              `json:"messages"`
}

// SelectResponse acknowledges a selection mirror (side channel only;
// it does not carry state)
type SelectResponse struct {
	Selected string `json:"selected"`
}

// JobResponse is the immediate acceptance of an async job
type JobResponse struct {
	JobID string `json:"job_id"`
}

// JobStatus values
const (
	JobQueued  = "queued"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// Job is a server-owned long-running operation, observed by polling
type Job struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Status   string         `json:"status"`
	Progress int            `json:"progress"`
	Message  string         `json:"message"`
	Result   map[string]any `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Terminal reports whether the job reached done or failed
func (j Job) Terminal() bool {
	return j.Status == JobDone || j.Status == JobFailed
}

// JobKind names for SubmitJob
const (
	JobRenderPreview  = "render_preview"
	JobRenderMixdown  = "render_mixdown"
	JobGenerateSample = "generate_sample"
)

// CreateProjectRequest creates a project with default tracks
type CreateProjectRequest struct {
	Name string  `json:"name"`
	BPM  float64 `json:"bpm"`
	Bars int     `json:"bars"`
}

// UpdateMetaRequest patches bpm/bars/swing; nil fields are left alone
type UpdateMetaRequest struct {
	BPM   *float64 `json:"bpm,omitempty"`
	Bars  *int     `json:"bars,omitempty"`
	Swing *float64 `json:"swing,omitempty"`
}

// UpdateTrackRequest patches track controls; nil fields are left alone
type UpdateTrackRequest struct {
	Volume          *float64 `json:"volume,omitempty"`
	Pan             *float64 `json:"pan,omitempty"`
	Mute            *bool    `json:"mute,omitempty"`
	Solo            *bool    `json:"solo,omitempty"`
	CurrentSampleID *string  `json:"current_sample_id,omitempty"`
	SampleName      *string  `json:"sample_name,omitempty"`
}

// ToggleDrumRequest toggles a drum hit at a tick (delete if present)
type ToggleDrumRequest struct {
	StartTick int     `json:"start_tick"`
	Drum      string  `json:"drum,omitempty"`
	SampleID  string  `json:"sample_id,omitempty"`
	TrackID   int     `json:"track_id,omitempty"`
	Velocity  float64 `json:"velocity,omitempty"`
}

// SetPitchRequest changes a melodic event's pitch
type SetPitchRequest struct {
	EventID string `json:"event_id"`
	Pitch   string `json:"pitch"`
}

// SetStartRequest moves an event to an absolute start tick
type SetStartRequest struct {
	EventID   string `json:"event_id"`
	StartTick int    `json:"start_tick"`
}

// SelectRequest mirrors the client-side selection to the server
type SelectRequest struct {
	EventID string `json:"event_id"`
}

// ApplyPatternRequest applies a named drum pattern over a bar range
type ApplyPatternRequest struct {
	Pattern string `json:"pattern"`
	Bars    int    `json:"bars"`
	BaseBar int    `json:"base_bar"`
}

// UndoRequest reverts the last n edits
type UndoRequest struct {
	Steps int `json:"steps"`
}

// GenerateSampleParams for the generate_sample job kind
type GenerateSampleParams struct {
	Instrument string  `json:"instrument"`
	BasePitch  string  `json:"base_pitch"`
	Prompt     string  `json:"prompt,omitempty"`
	Seconds    float64 `json:"seconds,omitempty"`
}

// RenderParams for render_preview / render_mixdown job kinds
type RenderParams struct {
	BarStart int     `json:"bar_start,omitempty"`
	Bars     int     `json:"bars,omitempty"`
	Seconds  float64 `json:"seconds,omitempty"`
}
