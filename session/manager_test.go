package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gridseq/api"
	"gridseq/timeline"
)

// fakeDAW is an in-memory stand-in for the state-mutation service. Every
// mutation answers with the full project state, like the real server.
type fakeDAW struct {
	mu    sync.Mutex
	state timeline.ProjectState

	created  int
	gets     int
	requests int

	setStartCalls []api.SetStartRequest
	toggleCalls   []api.ToggleDrumRequest
	selectCalls   []string

	failSetStart bool
	failSelect   bool

	srv *httptest.Server
}

func newFakeDAW(t *testing.T) *fakeDAW {
	f := &fakeDAW{}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeDAW) seedEvent(ev timeline.Event) {
	f.mu.Lock()
	f.state.Events = append(f.state.Events, ev)
	f.mu.Unlock()
}

func (f *fakeDAW) dropEvent(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.state.Events[:0]
	for _, e := range f.state.Events {
		if e.ID != id {
			out = append(out, e)
		}
	}
	f.state.Events = out
}

func (f *fakeDAW) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *fakeDAW) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++

	path := r.URL.Path
	switch {
	case r.Method == http.MethodPost && path == "/api/projects":
		var req api.CreateProjectRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.created++
		f.state = newProjectState(req)
		writeJSON(w, api.StateResponse{State: f.state})

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/api/projects/"):
		f.gets++
		writeJSON(w, api.StateResponse{State: f.state})

	case r.Method == http.MethodPatch && strings.HasSuffix(path, "/meta"):
		var req api.UpdateMetaRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.BPM != nil {
			f.state.Meta.BPM = *req.BPM
		}
		if req.Swing != nil {
			f.state.Meta.Swing = *req.Swing
		}
		if req.Bars != nil {
			f.state.Meta.Bars = *req.Bars
			f.state.Meta.TotalTicks = f.state.Meta.TicksPerBar * *req.Bars
			for i := range f.state.Events {
				if f.state.Events[i].StartTick > f.state.Meta.TotalTicks {
					f.state.Events[i].StartTick = f.state.Meta.TotalTicks
				}
			}
		}
		writeJSON(w, api.StateResponse{State: f.state})

	case r.Method == http.MethodPatch && strings.Contains(path, "/tracks/"):
		var req api.UpdateTrackRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		id, _ := strconv.Atoi(path[strings.LastIndex(path, "/")+1:])
		tr := f.state.Track(id)
		if tr == nil {
			writeDetail(w, http.StatusNotFound, "track not found")
			return
		}
		if req.Volume != nil {
			tr.Volume = *req.Volume
		}
		if req.Pan != nil {
			tr.Pan = *req.Pan
		}
		if req.Mute != nil {
			tr.Mute = *req.Mute
		}
		if req.Solo != nil {
			tr.Solo = *req.Solo
		}
		if req.CurrentSampleID != nil {
			tr.CurrentSampleID = *req.CurrentSampleID
		}
		if req.SampleName != nil {
			tr.SampleName = *req.SampleName
		}
		writeJSON(w, api.StateResponse{State: f.state})

	case strings.HasSuffix(path, "/actions/set_pitch"):
		var req api.SetPitchRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		ev := f.state.Event(req.EventID)
		if ev == nil {
			writeDetail(w, http.StatusNotFound, "event not found")
			return
		}
		ev.Pitch = req.Pitch
		writeJSON(w, api.StateResponse{State: f.state})

	case strings.HasSuffix(path, "/actions/apply_pattern"):
		var req api.ApplyPatternRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		tpb := f.state.Meta.TicksPerBeat
		for bar := req.BaseBar; bar < req.BaseBar+req.Bars; bar++ {
			base := bar * f.state.Meta.TicksPerBar
			for beat := 0; beat < 4; beat++ {
				tick := base + beat*tpb
				if f.eventAt(1, tick) == nil {
					f.state.Events = append(f.state.Events, timeline.Event{
						ID:           fmt.Sprintf("d%d", len(f.state.Events)+1),
						TrackID:      1,
						StartTick:    tick,
						DurationTick: 1,
						Type:         timeline.TrackDrum,
						SampleID:     "smp-kick",
						Velocity:     0.95,
					})
				}
			}
		}
		writeJSON(w, api.StateResponse{State: f.state})

	case strings.HasSuffix(path, "/actions/toggle_drum"):
		var req api.ToggleDrumRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.toggleCalls = append(f.toggleCalls, req)
		f.toggleDrum(req)
		writeJSON(w, api.StateResponse{State: f.state})

	case strings.HasSuffix(path, "/actions/set_start"):
		if f.failSetStart {
			writeDetail(w, http.StatusConflict, "event locked")
			return
		}
		var req api.SetStartRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.setStartCalls = append(f.setStartCalls, req)
		ev := f.state.Event(req.EventID)
		if ev == nil {
			writeDetail(w, http.StatusNotFound, "event not found")
			return
		}
		ev.StartTick = req.StartTick
		writeJSON(w, api.StateResponse{State: f.state})

	case strings.HasSuffix(path, "/actions/select"):
		if f.failSelect {
			writeDetail(w, http.StatusInternalServerError, "selection store down")
			return
		}
		var req api.SelectRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.selectCalls = append(f.selectCalls, req.EventID)
		writeJSON(w, api.SelectResponse{Selected: req.EventID})

	case strings.HasSuffix(path, "/chat"):
		writeJSON(w, api.ChatResponse{State: f.state, Messages: []string{"set bpm to 128"}})

	case strings.HasSuffix(path, "/actions/undo"):
		writeJSON(w, api.ChatResponse{State: f.state, Messages: []string{"undid 1 edit"}})

	default:
		writeDetail(w, http.StatusNotFound, "no route "+path)
	}
}

func (f *fakeDAW) eventAt(trackID, tick int) *timeline.Event {
	for i := range f.state.Events {
		if f.state.Events[i].TrackID == trackID && f.state.Events[i].StartTick == tick {
			return &f.state.Events[i]
		}
	}
	return nil
}

func (f *fakeDAW) toggleDrum(req api.ToggleDrumRequest) {
	for i, e := range f.state.Events {
		if e.TrackID == req.TrackID && e.StartTick == req.StartTick {
			f.state.Events = append(f.state.Events[:i], f.state.Events[i+1:]...)
			return
		}
	}
	f.state.Events = append(f.state.Events, timeline.Event{
		ID:           fmt.Sprintf("d%d", len(f.state.Events)+1),
		TrackID:      req.TrackID,
		StartTick:    req.StartTick,
		DurationTick: 1,
		Type:         timeline.TrackDrum,
		SampleID:     "smp-" + req.Drum,
		Velocity:     req.Velocity,
	})
}

// 16 ticks per bar, so quarter grid snaps to multiples of 4 and eighth
// to multiples of 2
func newProjectState(req api.CreateProjectRequest) timeline.ProjectState {
	return timeline.ProjectState{
		ID:   "p1",
		Name: req.Name,
		Meta: timeline.Meta{
			TimeSignature: []int{4, 4},
			BPM:           req.BPM,
			Bars:          req.Bars,
			TicksPerBeat:  4,
			TicksPerBar:   16,
			TotalTicks:    16 * req.Bars,
			Swing:         0,
		},
		Tracks: []timeline.Track{
			{ID: 1, Name: "Drums", Type: timeline.TrackDrum, Volume: 0.8},
			{ID: 2, Name: "Bass", Type: timeline.TrackMelodic, Volume: 0.8},
			{ID: 3, Name: "Pad", Type: timeline.TrackMelodic, Volume: 0.8},
			{ID: 4, Name: "Lead", Type: timeline.TrackMelodic, Volume: 0.8},
		},
		Samples: map[string]timeline.Sample{},
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func newTestManager(t *testing.T, grid timeline.Grid) (*Manager, *fakeDAW) {
	f := newFakeDAW(t)
	client := api.NewClient(f.srv.URL)
	poller := api.NewPoller(client, 0)
	m := NewManager(client, poller, ProjectDefaults{Name: "Test", BPM: 120, Bars: 4}, grid)
	return m, f
}

func TestEnsureProjectCreateOnFirstUse(t *testing.T) {
	m, f := newTestManager(t, timeline.GridSixteenth)
	ctx := context.Background()

	require.Nil(t, m.State())
	require.Equal(t, "", m.ProjectID())

	require.NoError(t, m.EnsureProject(ctx))
	require.Equal(t, "p1", m.ProjectID())
	require.NotNil(t, m.State())
	require.Len(t, m.State().Tracks, timeline.NumTracks)

	// second call is a no-op, no second create
	require.NoError(t, m.EnsureProject(ctx))
	require.Equal(t, 1, f.created)
}

func TestFirstMutationCreatesProject(t *testing.T) {
	m, f := newTestManager(t, timeline.GridSixteenth)
	ctx := context.Background()

	require.NoError(t, m.Apply(ctx, ToggleDrum{StartTick: 0, Drum: "kick", TrackID: 1, Velocity: 0.9}))
	require.Equal(t, 1, f.created)
	require.Len(t, m.State().Events, 1)
}

func TestToggleDrumAtSnapsToGrid(t *testing.T) {
	m, f := newTestManager(t, timeline.GridEighth)
	ctx := context.Background()
	require.NoError(t, m.EnsureProject(ctx))

	// eighth grid on 16 ticks per bar snaps to multiples of 2: 5 -> 6
	require.NoError(t, m.ToggleDrumAt(ctx, 5, "kick"))
	require.Len(t, f.toggleCalls, 1)
	require.Equal(t, 6, f.toggleCalls[0].StartTick)
	require.Equal(t, 1, f.toggleCalls[0].TrackID)

	// cache was replaced with the server's state
	require.Len(t, m.State().Events, 1)
	require.Equal(t, 6, m.State().Events[0].StartTick)

	// same point again removes the hit
	require.NoError(t, m.ToggleDrumAt(ctx, 6, "kick"))
	require.Len(t, m.State().Events, 0)
}

func TestNudgeSelectedSnapsAndClamps(t *testing.T) {
	m, f := newTestManager(t, timeline.GridQuarter)
	ctx := context.Background()
	require.NoError(t, m.EnsureProject(ctx))

	f.seedEvent(timeline.Event{ID: "e1", TrackID: 2, StartTick: 10, DurationTick: 4, Type: timeline.TrackMelodic, Pitch: "C4"})
	require.NoError(t, m.Reload(ctx))

	m.SelectEvent(ctx, "e1")

	// quarter grid is 4 ticks: 10 + 4 = 14, snapped to 16
	require.NoError(t, m.NudgeSelected(ctx, +1, NudgeFine))
	require.Len(t, f.setStartCalls, 1)
	require.Equal(t, 16, f.setStartCalls[0].StartTick)
	require.Equal(t, 16, m.State().Event("e1").StartTick)

	// right to the edge: repeated coarse nudges clamp at TotalTicks
	require.NoError(t, m.NudgeSelected(ctx, +1, NudgeCoarse))
	require.NoError(t, m.NudgeSelected(ctx, +1, NudgeCoarse))
	require.NoError(t, m.NudgeSelected(ctx, +1, NudgeCoarse))
	require.Equal(t, 64, m.State().Event("e1").StartTick)

	// and back down past zero clamps at 0
	for i := 0; i < 6; i++ {
		require.NoError(t, m.NudgeSelected(ctx, -1, NudgeCoarse))
	}
	require.Equal(t, 0, m.State().Event("e1").StartTick)
}

func TestNudgeWithoutSelection(t *testing.T) {
	m, f := newTestManager(t, timeline.GridQuarter)
	ctx := context.Background()
	require.NoError(t, m.EnsureProject(ctx))

	before := f.requestCount()
	require.Error(t, m.NudgeSelected(ctx, +1, NudgeFine))
	require.Equal(t, before, f.requestCount())
}

func TestDragCommit(t *testing.T) {
	m, f := newTestManager(t, timeline.GridQuarter)
	ctx := context.Background()
	require.NoError(t, m.EnsureProject(ctx))

	f.seedEvent(timeline.Event{ID: "e1", TrackID: 2, StartTick: 8, DurationTick: 4, Type: timeline.TrackMelodic, Pitch: "C4"})
	require.NoError(t, m.Reload(ctx))

	// 64-tick project over a 64-cell lane: one cell per tick
	require.True(t, m.BeginDrag("e1", 8, 64))

	// wait for the press's selection mirror so the counter is stable
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.selectCalls) == 1
	}, time.Second, 5*time.Millisecond)

	// no request while the pointer moves
	before := f.requestCount()
	m.MoveDrag(22)
	require.Equal(t, before, f.requestCount())

	id, tick, active := m.DragPreview()
	require.True(t, active)
	require.Equal(t, "e1", id)
	require.Equal(t, 24, tick) // snap(8+14, 4)

	require.NoError(t, m.ReleaseDrag(ctx))
	require.Len(t, f.setStartCalls, 1)
	require.Equal(t, 24, f.setStartCalls[0].StartTick)
	require.Equal(t, 24, m.State().Event("e1").StartTick)

	_, _, active = m.DragPreview()
	require.False(t, active)
}

func TestDragZeroMovementStillCommits(t *testing.T) {
	m, f := newTestManager(t, timeline.GridQuarter)
	ctx := context.Background()
	require.NoError(t, m.EnsureProject(ctx))

	f.seedEvent(timeline.Event{ID: "e1", TrackID: 2, StartTick: 10, DurationTick: 4, Type: timeline.TrackMelodic, Pitch: "C4"})
	require.NoError(t, m.Reload(ctx))

	require.True(t, m.BeginDrag("e1", 10, 64))
	require.NoError(t, m.ReleaseDrag(ctx))

	// press without motion still commits, at the original position
	require.Len(t, f.setStartCalls, 1)
	require.Equal(t, 10, f.setStartCalls[0].StartTick)
}

func TestDragRollbackForcesReload(t *testing.T) {
	m, f := newTestManager(t, timeline.GridQuarter)
	ctx := context.Background()
	require.NoError(t, m.EnsureProject(ctx))

	f.seedEvent(timeline.Event{ID: "e1", TrackID: 2, StartTick: 8, DurationTick: 4, Type: timeline.TrackMelodic, Pitch: "C4"})
	require.NoError(t, m.Reload(ctx))

	f.mu.Lock()
	f.failSetStart = true
	gets := f.gets
	f.mu.Unlock()

	require.True(t, m.BeginDrag("e1", 8, 64))
	m.MoveDrag(40)
	require.Error(t, m.ReleaseDrag(ctx))

	// a fresh GET ran and the pre-drag layout is back
	f.mu.Lock()
	require.Greater(t, f.gets, gets)
	f.mu.Unlock()
	require.Equal(t, 8, m.State().Event("e1").StartTick)

	_, _, active := m.DragPreview()
	require.False(t, active)
}

func TestPrecheckIssuesNoRequest(t *testing.T) {
	m, f := newTestManager(t, timeline.GridSixteenth)
	ctx := context.Background()

	// invalid pitch is rejected before any request, even project creation
	require.Error(t, m.Apply(ctx, SetPitch{EventID: "e1", Pitch: "H4"}))
	require.Equal(t, 0, f.requestCount())

	require.NoError(t, m.EnsureProject(ctx))
	before := f.requestCount()

	// unknown track
	vol := 0.5
	require.Error(t, m.Apply(ctx, PatchTrack{TrackID: 9, Volume: &vol}))
	require.Equal(t, before, f.requestCount())

	// pitch edit on a drum event
	f.seedEvent(timeline.Event{ID: "d1", TrackID: 1, StartTick: 0, DurationTick: 1, Type: timeline.TrackDrum})
	require.NoError(t, m.Reload(ctx))
	before = f.requestCount()
	require.Error(t, m.Apply(ctx, SetPitch{EventID: "d1", Pitch: "C4"}))
	require.Equal(t, before, f.requestCount())
}

func TestSelectionMirrorBestEffort(t *testing.T) {
	m, f := newTestManager(t, timeline.GridSixteenth)
	ctx := context.Background()
	require.NoError(t, m.EnsureProject(ctx))

	f.seedEvent(timeline.Event{ID: "e1", TrackID: 2, StartTick: 0, DurationTick: 4, Type: timeline.TrackMelodic, Pitch: "C4"})
	require.NoError(t, m.Reload(ctx))

	f.mu.Lock()
	f.failSelect = true
	f.mu.Unlock()

	// mirror failure never rolls back the local selection
	m.SelectEvent(ctx, "e1")
	id, ok := m.SelectedEvent()
	require.True(t, ok)
	require.Equal(t, "e1", id)
}

func TestReloadClearsStaleSelection(t *testing.T) {
	m, f := newTestManager(t, timeline.GridSixteenth)
	ctx := context.Background()
	require.NoError(t, m.EnsureProject(ctx))

	f.seedEvent(timeline.Event{ID: "e1", TrackID: 2, StartTick: 0, DurationTick: 4, Type: timeline.TrackMelodic, Pitch: "C4"})
	require.NoError(t, m.Reload(ctx))
	m.SelectEvent(ctx, "e1")

	f.dropEvent("e1")
	require.NoError(t, m.Reload(ctx))

	_, ok := m.SelectedEvent()
	require.False(t, ok)
}

func TestBeginDragMirrorsSelection(t *testing.T) {
	m, f := newTestManager(t, timeline.GridSixteenth)
	ctx := context.Background()
	require.NoError(t, m.EnsureProject(ctx))

	f.seedEvent(timeline.Event{ID: "e1", TrackID: 2, StartTick: 0, DurationTick: 4, Type: timeline.TrackMelodic, Pitch: "C4"})
	require.NoError(t, m.Reload(ctx))

	// press-to-drag selects, and the selection is mirrored to the server
	require.True(t, m.BeginDrag("e1", 0, 64))
	id, ok := m.SelectedEvent()
	require.True(t, ok)
	require.Equal(t, "e1", id)

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.selectCalls) == 1 && f.selectCalls[0] == "e1"
	}, time.Second, 5*time.Millisecond)
}

func TestUpdateMetaReplacesState(t *testing.T) {
	m, f := newTestManager(t, timeline.GridSixteenth)
	ctx := context.Background()
	require.NoError(t, m.EnsureProject(ctx))

	bpm := 140.0
	require.NoError(t, m.Apply(ctx, UpdateMeta{BPM: &bpm}))
	require.Equal(t, 140.0, m.State().Meta.BPM)

	// shrinking bars re-clamps events server-side; the full replace
	// picks that up without any local merging
	f.seedEvent(timeline.Event{ID: "e1", TrackID: 2, StartTick: 60, DurationTick: 4, Type: timeline.TrackMelodic, Pitch: "C4"})
	require.NoError(t, m.Reload(ctx))

	bars := 2
	require.NoError(t, m.Apply(ctx, UpdateMeta{Bars: &bars}))
	require.Equal(t, 32, m.State().Meta.TotalTicks)
	require.Equal(t, 32, m.State().Event("e1").StartTick)
}

func TestPatchTrackReplacesState(t *testing.T) {
	m, _ := newTestManager(t, timeline.GridSixteenth)
	ctx := context.Background()
	require.NoError(t, m.EnsureProject(ctx))

	vol := 0.5
	mute := true
	require.NoError(t, m.Apply(ctx, PatchTrack{TrackID: 2, Volume: &vol, Mute: &mute}))

	tr := m.State().Track(2)
	require.Equal(t, 0.5, tr.Volume)
	require.True(t, tr.Mute)

	// untouched fields survive the round trip
	require.Equal(t, 0.8, m.State().Track(1).Volume)
}

func TestSetPitchReplacesState(t *testing.T) {
	m, f := newTestManager(t, timeline.GridSixteenth)
	ctx := context.Background()
	require.NoError(t, m.EnsureProject(ctx))

	f.seedEvent(timeline.Event{ID: "e1", TrackID: 2, StartTick: 0, DurationTick: 4, Type: timeline.TrackMelodic, Pitch: "C4"})
	require.NoError(t, m.Reload(ctx))

	require.NoError(t, m.Apply(ctx, SetPitch{EventID: "e1", Pitch: "D4"}))
	require.Equal(t, "D4", m.State().Event("e1").Pitch)
}

func TestApplyPatternFourOnFloor(t *testing.T) {
	m, _ := newTestManager(t, timeline.GridSixteenth)
	ctx := context.Background()
	require.NoError(t, m.EnsureProject(ctx))

	require.NoError(t, m.Apply(ctx, ApplyPattern{Pattern: "four", Bars: 4, BaseBar: 0}))

	// one kick per beat over four bars
	st := m.State()
	require.Len(t, st.Events, 16)
	require.Equal(t, 0, st.Events[0].StartTick)
	require.Equal(t, 4, st.Events[1].StartTick)
	require.Equal(t, 60, st.Events[15].StartTick)
}

func TestChatAndUndoMessagesOnFeed(t *testing.T) {
	m, _ := newTestManager(t, timeline.GridSixteenth)
	ctx := context.Background()

	require.NoError(t, m.Apply(ctx, Chat{Message: "make it faster"}))
	require.Contains(t, m.Feed(), "set bpm to 128")

	require.NoError(t, m.Apply(ctx, Undo{Steps: 1}))
	require.Contains(t, m.Feed(), "undid 1 edit")
}

func TestCycleGrid(t *testing.T) {
	m, _ := newTestManager(t, timeline.GridSixteenth)
	require.Equal(t, timeline.GridEighth, m.CycleGrid())
	require.Equal(t, timeline.GridQuarter, m.CycleGrid())
	require.Equal(t, timeline.GridSixteenth, m.CycleGrid())
}
