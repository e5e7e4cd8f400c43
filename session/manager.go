package session

import (
	"context"
	"fmt"
	"sync"

	"gridseq/api"
	"gridseq/debug"
	"gridseq/timeline"
)

// ProjectDefaults seed create-on-first-use
type ProjectDefaults struct {
	Name string
	BPM  float64
	Bars int
}

// Manager owns the authoritative state cache and funnels every semantic
// edit through one protocol: ensure a project exists, issue the mutation,
// replace the cached ProjectState wholesale with the response, notify the
// UI. On failure the previous state is left untouched and the error is
// surfaced on the message feed.
type Manager struct {
	client *api.Client
	poller *api.Poller

	defaults ProjectDefaults

	// sendMu serializes mutations: each waits for its response before
	// the next is issued, so responses cannot race the cache.
	sendMu sync.Mutex

	mu        sync.RWMutex
	projectID string
	state     *timeline.ProjectState // last server-confirmed state
	selection timeline.Selection
	grid      timeline.Grid
	drag      timeline.DragSession
	feed      []string

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// maxFeed bounds the message feed
const maxFeed = 200

// NewManager creates a manager around an API client
func NewManager(client *api.Client, poller *api.Poller, defaults ProjectDefaults, grid timeline.Grid) *Manager {
	if defaults.Name == "" {
		defaults.Name = "My Project"
	}
	if defaults.BPM <= 0 {
		defaults.BPM = 120
	}
	if defaults.Bars <= 0 {
		defaults.Bars = 4
	}
	return &Manager{
		client:     client,
		poller:     poller,
		defaults:   defaults,
		grid:       grid,
		UpdateChan: make(chan struct{}, 1),
	}
}

func (m *Manager) notify() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}

// State returns the cached authoritative state (nil before first use)
func (m *Manager) State() *timeline.ProjectState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// ProjectID returns the current project id ("" before first use)
func (m *Manager) ProjectID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.projectID
}

// Grid returns the active quantization grid
func (m *Manager) Grid() timeline.Grid {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.grid
}

// GridTick returns the snap step in ticks for the active grid
func (m *Manager) GridTick() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return 1
	}
	return m.grid.GridTick(m.state.Meta)
}

// CycleGrid steps to the next quantization resolution
func (m *Manager) CycleGrid() timeline.Grid {
	m.mu.Lock()
	for i, g := range timeline.Grids {
		if g == m.grid {
			m.grid = timeline.Grids[(i+1)%len(timeline.Grids)]
			break
		}
	}
	g := m.grid
	m.mu.Unlock()
	m.notify()
	return g
}

// Feed returns a copy of the message feed, oldest first
func (m *Manager) Feed() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.feed))
	copy(out, m.feed)
	return out
}

// Say appends a line to the message feed
func (m *Manager) Say(format string, args ...any) {
	m.mu.Lock()
	m.feed = append(m.feed, fmt.Sprintf(format, args...))
	if len(m.feed) > maxFeed {
		m.feed = m.feed[len(m.feed)-maxFeed:]
	}
	m.mu.Unlock()
	m.notify()
}

// replace installs a new authoritative state. Every reload invalidates
// the drag preview, and a selection pointing at a vanished event is
// dropped so nudges can't target ghosts.
func (m *Manager) replace(st timeline.ProjectState) {
	m.mu.Lock()
	m.state = &st
	m.projectID = st.ID
	m.drag.Invalidate()
	if id, ok := m.selection.EventID(); ok && st.Event(id) == nil {
		m.selection.Clear()
	}
	m.mu.Unlock()
	m.notify()
}

// EnsureProject creates a default project on first use
func (m *Manager) EnsureProject(ctx context.Context) error {
	m.mu.RLock()
	have := m.projectID != ""
	m.mu.RUnlock()
	if have {
		return nil
	}

	st, err := m.client.CreateProject(ctx, api.CreateProjectRequest{
		Name: m.defaults.Name,
		BPM:  m.defaults.BPM,
		Bars: m.defaults.Bars,
	})
	if err != nil {
		return err
	}
	m.replace(st)
	m.Say("created project %q (%g bpm, %d bars)", st.Name, st.Meta.BPM, st.Meta.Bars)
	return nil
}

// Reload forces a fresh authoritative state from the server
func (m *Manager) Reload(ctx context.Context) error {
	m.mu.RLock()
	id := m.projectID
	m.mu.RUnlock()
	if id == "" {
		return fmt.Errorf("no project loaded")
	}
	st, err := m.client.GetProject(ctx, id)
	if err != nil {
		return err
	}
	m.replace(st)
	return nil
}

// Apply dispatches one mutation: precondition checks, create-on-first-use,
// the request itself, then a wholesale cache replace on success. On any
// failure the previous cached state stays visible and the error is
// reported on the feed.
func (m *Manager) Apply(ctx context.Context, mut Mutation) error {
	if err := m.precheck(mut); err != nil {
		m.Say("rejected: %v", err)
		return err
	}

	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	if err := m.EnsureProject(ctx); err != nil {
		m.Say("error: %v", err)
		return err
	}

	m.mu.RLock()
	id := m.projectID
	m.mu.RUnlock()

	debug.Log("mutate", "%s project=%s", mut.mutationName(), id)

	st, messages, err := m.dispatch(ctx, id, mut)
	if err != nil {
		m.Say("error: %v", err)
		return err
	}

	m.replace(st)
	for _, msg := range messages {
		m.Say("%s", msg)
	}
	return nil
}

// precheck short-circuits local precondition failures before any request
func (m *Manager) precheck(mut Mutation) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch v := mut.(type) {
	case SetPitch:
		if !timeline.ValidPitch(v.Pitch) {
			return fmt.Errorf("invalid pitch %q", v.Pitch)
		}
		if m.state != nil {
			ev := m.state.Event(v.EventID)
			if ev == nil {
				return fmt.Errorf("no such event %s", v.EventID)
			}
			if ev.Type != timeline.TrackMelodic {
				return fmt.Errorf("event %s is not melodic", v.EventID)
			}
		}
	case PatchTrack:
		if m.state != nil && m.state.Track(v.TrackID) == nil {
			return fmt.Errorf("no such track %d", v.TrackID)
		}
	case SetStart:
		if v.EventID == "" {
			return fmt.Errorf("no event to move")
		}
	}
	return nil
}

func (m *Manager) dispatch(ctx context.Context, id string, mut Mutation) (timeline.ProjectState, []string, error) {
	switch v := mut.(type) {
	case PatchTrack:
		st, err := m.client.PatchTrack(ctx, id, v.TrackID, api.UpdateTrackRequest{
			Volume:          v.Volume,
			Pan:             v.Pan,
			Mute:            v.Mute,
			Solo:            v.Solo,
			CurrentSampleID: v.SampleID,
			SampleName:      v.SampleName,
		})
		return st, nil, err

	case UpdateMeta:
		st, err := m.client.UpdateMeta(ctx, id, api.UpdateMetaRequest{
			BPM: v.BPM, Bars: v.Bars, Swing: v.Swing,
		})
		return st, nil, err

	case ToggleDrum:
		st, err := m.client.ToggleDrum(ctx, id, api.ToggleDrumRequest{
			StartTick: v.StartTick,
			Drum:      v.Drum,
			SampleID:  v.SampleID,
			TrackID:   v.TrackID,
			Velocity:  v.Velocity,
		})
		return st, nil, err

	case SetPitch:
		st, err := m.client.SetPitch(ctx, id, api.SetPitchRequest{EventID: v.EventID, Pitch: v.Pitch})
		return st, nil, err

	case SetStart:
		st, err := m.client.SetStart(ctx, id, api.SetStartRequest{EventID: v.EventID, StartTick: v.StartTick})
		return st, nil, err

	case ApplyPattern:
		st, err := m.client.ApplyPattern(ctx, id, api.ApplyPatternRequest{
			Pattern: v.Pattern, Bars: v.Bars, BaseBar: v.BaseBar,
		})
		return st, nil, err

	case Chat:
		resp, err := m.client.Chat(ctx, id, v.Message)
		return resp.State, resp.Messages, err

	case Undo:
		steps := v.Steps
		if steps < 1 {
			steps = 1
		}
		resp, err := m.client.Undo(ctx, id, steps)
		return resp.State, resp.Messages, err
	}

	return timeline.ProjectState{}, nil, fmt.Errorf("unknown mutation %T", mut)
}

// ToggleDrumAt snaps a raw tick to the active grid and dispatches a
// drum toggle on the drum lane
func (m *Manager) ToggleDrumAt(ctx context.Context, rawTick int, drum string) error {
	m.mu.RLock()
	st := m.state
	grid := m.grid
	m.mu.RUnlock()

	tick := rawTick
	if st != nil {
		tick = timeline.Clamp(timeline.Snap(rawTick, grid.GridTick(st.Meta)), st.Meta.TotalTicks)
	}
	return m.Apply(ctx, ToggleDrum{StartTick: tick, Drum: drum, TrackID: 1, Velocity: 0.9})
}
