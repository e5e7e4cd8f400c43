package session

import (
	"context"
	"fmt"

	"gridseq/debug"
	"gridseq/timeline"
)

// SelectEvent updates the local selection synchronously, then mirrors it
// to the server as a best-effort side channel: a mirror failure is logged
// and never blocks or rolls back the local selection.
func (m *Manager) SelectEvent(ctx context.Context, eventID string) {
	m.mu.Lock()
	m.selection.Set(eventID)
	id := m.projectID
	m.mu.Unlock()
	m.notify()

	m.mirrorSelection(ctx, id, eventID)
}

func (m *Manager) mirrorSelection(ctx context.Context, projectID, eventID string) {
	if projectID == "" {
		return
	}
	if err := m.client.SelectEvent(ctx, projectID, eventID); err != nil {
		debug.Log("select", "mirror failed for %s: %v", eventID, err)
	}
}

// ClearSelection drops the local selection
func (m *Manager) ClearSelection() {
	m.mu.Lock()
	m.selection.Clear()
	m.mu.Unlock()
	m.notify()
}

// SelectedEvent returns the selected event id, if any
func (m *Manager) SelectedEvent() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selection.EventID()
}

// NudgeSteps per keypress: one grid step, four with a modifier
const (
	NudgeFine   = 1
	NudgeCoarse = 4
)

// NudgeSelected moves the selected event by steps grid steps in the
// given direction (-1 left, +1 right). Each nudge is one immediate
// mutation; there is no local buffering of repeated presses.
func (m *Manager) NudgeSelected(ctx context.Context, direction, steps int) error {
	m.mu.RLock()
	id, ok := m.selection.EventID()
	st := m.state
	grid := m.grid
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("nothing selected")
	}
	if st == nil {
		return fmt.Errorf("no project loaded")
	}
	ev := st.Event(id)
	if ev == nil {
		return fmt.Errorf("selected event %s no longer exists", id)
	}

	gridTick := grid.GridTick(st.Meta)
	tick := timeline.Clamp(
		timeline.Snap(ev.StartTick+direction*steps*gridTick, gridTick),
		st.Meta.TotalTicks,
	)
	debug.Log("nudge", "event=%s %d -> %d (grid=%d)", id, ev.StartTick, tick, gridTick)
	return m.Apply(ctx, SetStart{EventID: id, StartTick: tick})
}

// BeginDrag starts a drag session over an event. Selecting happens on
// press as well, so a drag is also a select, including the server mirror.
func (m *Manager) BeginDrag(eventID string, pressX, laneWidth float64) bool {
	m.mu.Lock()
	if m.state == nil {
		m.mu.Unlock()
		return false
	}
	ev := m.state.Event(eventID)
	if ev == nil {
		m.mu.Unlock()
		return false
	}
	gridTick := m.grid.GridTick(m.state.Meta)
	m.drag.Begin(*ev, pressX, laneWidth, m.state.Meta.TotalTicks, gridTick)
	m.selection.Set(eventID)
	id := m.projectID
	m.mu.Unlock()

	go m.mirrorSelection(context.Background(), id, eventID)
	return true
}

// MoveDrag updates the visual preview from a pointer position. The
// authoritative cache is untouched; no network call happens mid-drag.
func (m *Manager) MoveDrag(x float64) {
	m.mu.Lock()
	m.drag.Move(x)
	m.mu.Unlock()
	m.notify()
}

// DragPreview returns the dragged event id and its visual tick while a
// drag session is active
func (m *Manager) DragPreview() (eventID string, tick int, active bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.drag.Active() {
		return "", 0, false
	}
	return m.drag.EventID(), m.drag.PreviewTick(), true
}

// ReleaseDrag commits the drag as a single set-start mutation. On
// success the reload discards the preview (which now coincides with
// server truth); on failure the preview is discarded and a forced reload
// restores the pre-drag layout.
func (m *Manager) ReleaseDrag(ctx context.Context) error {
	m.mu.Lock()
	eventID, tick, ok := m.drag.Release()
	m.mu.Unlock()
	if !ok {
		return nil
	}

	err := m.Apply(ctx, SetStart{EventID: eventID, StartTick: tick})
	if err != nil {
		m.mu.Lock()
		m.drag.Rollback()
		m.mu.Unlock()
		if rerr := m.Reload(ctx); rerr != nil {
			m.Say("error: reload after failed drag: %v", rerr)
		}
		return err
	}

	// Apply replaced the cache, which already invalidated the preview
	return nil
}
