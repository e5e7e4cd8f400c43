package timeline

import "math"

// DragPhase is the drag session's state machine phase
type DragPhase int

const (
	DragIdle DragPhase = iota
	DragDragging
	DragCommitting
	DragRollingBack
)

// DragSession previews an event's position during a pointer drag.
// The preview tick is visual-only: it must never be written back into
// the authoritative state, and it is invalidated unconditionally when
// the gesture ends or when any reload occurs.
type DragSession struct {
	phase         DragPhase
	eventID       string
	originalStart int
	pressX        float64
	previewTick   int

	laneWidth  float64
	totalTicks int
	gridTick   int
}

// Active reports whether a drag preview should override rendering
func (d *DragSession) Active() bool {
	return d.phase == DragDragging || d.phase == DragCommitting
}

// Phase returns the current state machine phase
func (d *DragSession) Phase() DragPhase { return d.phase }

// EventID returns the dragged event's id ("" when idle)
func (d *DragSession) EventID() string { return d.eventID }

// OriginalStart returns the start tick captured at press-down
func (d *DragSession) OriginalStart() int { return d.originalStart }

// PreviewTick returns the current visual position of the dragged event
func (d *DragSession) PreviewTick() int { return d.previewTick }

// Begin enters Dragging on a primary-button press over an event
func (d *DragSession) Begin(ev Event, pressX, laneWidth float64, totalTicks, gridTick int) {
	d.phase = DragDragging
	d.eventID = ev.ID
	d.originalStart = ev.StartTick
	d.pressX = pressX
	d.previewTick = ev.StartTick
	d.laneWidth = laneWidth
	d.totalTicks = totalTicks
	d.gridTick = gridTick
}

// Move recomputes the preview from the pointer delta. No network, no
// cache writes; this is the synchronous per-event visual update.
func (d *DragSession) Move(x float64) int {
	if d.phase != DragDragging {
		return d.previewTick
	}
	deltaTick := int(math.Round((x - d.pressX) / d.laneWidth * float64(d.totalTicks)))
	candidate := Snap(d.originalStart+deltaTick, d.gridTick)
	d.previewTick = Clamp(candidate, d.totalTicks)
	return d.previewTick
}

// Release transitions Dragging -> Committing and returns the final tick
// to send as a set-start mutation. A zero-movement drag still commits.
func (d *DragSession) Release() (eventID string, tick int, ok bool) {
	if d.phase != DragDragging {
		return "", 0, false
	}
	d.phase = DragCommitting
	return d.eventID, d.previewTick, true
}

// Commit ends the session after a successful set-start; the preview now
// coincides with server truth and is discarded.
func (d *DragSession) Commit() {
	d.reset()
}

// Rollback ends the session after a failed commit; the caller must force
// a reload so the pre-drag layout is restored.
func (d *DragSession) Rollback() {
	d.phase = DragRollingBack
	d.reset()
}

// Invalidate discards any in-flight preview (called on every reload)
func (d *DragSession) Invalidate() {
	d.reset()
}

func (d *DragSession) reset() {
	*d = DragSession{}
}
