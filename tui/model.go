package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"gridseq/api"
	"gridseq/audition"
	"gridseq/debug"
	"gridseq/session"
	"gridseq/theme"
	"gridseq/timeline"
)

// layoutBounds holds cached layout info for mouse hit testing
type layoutBounds struct {
	timelineTop int // screen row of the first lane
	laneLeft    int // column where grid cells start
	laneWidth   int // cells per lane (one cell per tick)
}

type Model struct {
	Manager *session.Manager
	Player  *audition.Player // nil when audition is disabled
	Theme   *theme.Theme

	keys KeyMap
	chat textinput.Model
	spin spinner.Model

	focusedTrack int    // 1..4, target of track control keys
	drum         string // drum placed by empty-cell clicks
	bounds       *layoutBounds

	jobCh      chan api.Job
	job        api.Job
	jobRunning bool

	quitting bool
	width    int
	height   int
}

type UpdateMsg struct{}

type playerMsg struct{}

type mutationDoneMsg struct{}

type jobProgressMsg api.Job

type jobDoneMsg struct{}

func NewModel(manager *session.Manager, player *audition.Player, th *theme.Theme) Model {
	chat := textinput.New()
	chat.Placeholder = "describe an edit, e.g. \"add a kick on every beat\""
	chat.CharLimit = 400

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	return Model{
		Manager:      manager,
		Player:       player,
		Theme:        th,
		keys:         DefaultKeyMap(),
		chat:         chat,
		spin:         sp,
		focusedTrack: 1,
		drum:         drumKinds[0],
		bounds:       &layoutBounds{},
		jobCh:        make(chan api.Job, 8),
	}
}

func ListenForUpdates(manager *session.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func listenForPlayer(player *audition.Player) tea.Cmd {
	if player == nil {
		return nil
	}
	return func() tea.Msg {
		<-player.UpdateChan
		return playerMsg{}
	}
}

func (m Model) listenForJobs() tea.Cmd {
	return func() tea.Msg {
		return jobProgressMsg(<-m.jobCh)
	}
}

// dispatch runs a mutation off the event loop; errors land on the feed
func dispatch(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		_ = fn(context.Background())
		return mutationDoneMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForUpdates(m.Manager),
		listenForPlayer(m.Player),
		m.listenForJobs(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case playerMsg:
		return m, listenForPlayer(m.Player)

	case jobProgressMsg:
		m.job = api.Job(msg)
		m.jobRunning = !m.job.Terminal()
		return m, m.listenForJobs()

	case jobDoneMsg:
		m.jobRunning = false

	case mutationDoneMsg:
		// feed + state already updated by the manager

	case spinner.TickMsg:
		if m.jobRunning {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// text entry swallows everything except submit/cancel
	if m.chat.Focused() {
		switch msg.String() {
		case "enter":
			text := m.chat.Value()
			m.chat.SetValue("")
			m.chat.Blur()
			if text == "" {
				return m, nil
			}
			mgr := m.Manager
			return m, dispatch(func(ctx context.Context) error {
				return mgr.Apply(ctx, session.Chat{Message: text})
			})
		case "esc":
			m.chat.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.chat, cmd = m.chat.Update(msg)
			return m, cmd
		}
	}

	mgr := m.Manager
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if m.Player != nil {
			m.Player.Stop()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.NudgeLeft):
		return m, dispatch(func(ctx context.Context) error {
			return mgr.NudgeSelected(ctx, -1, session.NudgeFine)
		})
	case key.Matches(msg, m.keys.NudgeRight):
		return m, dispatch(func(ctx context.Context) error {
			return mgr.NudgeSelected(ctx, 1, session.NudgeFine)
		})
	case key.Matches(msg, m.keys.NudgeLeftCoarse):
		return m, dispatch(func(ctx context.Context) error {
			return mgr.NudgeSelected(ctx, -1, session.NudgeCoarse)
		})
	case key.Matches(msg, m.keys.NudgeRightCoarse):
		return m, dispatch(func(ctx context.Context) error {
			return mgr.NudgeSelected(ctx, 1, session.NudgeCoarse)
		})

	case key.Matches(msg, m.keys.CycleGrid):
		m.Manager.CycleGrid()

	case key.Matches(msg, m.keys.Deselect):
		m.Manager.ClearSelection()

	case key.Matches(msg, m.keys.Mute):
		return m, m.patchFocusedTrack(func(tr timeline.Track, req *session.PatchTrack) {
			v := !tr.Mute
			req.Mute = &v
		})
	case key.Matches(msg, m.keys.Solo):
		return m, m.patchFocusedTrack(func(tr timeline.Track, req *session.PatchTrack) {
			v := !tr.Solo
			req.Solo = &v
		})
	case key.Matches(msg, m.keys.VolumeDown):
		return m, m.patchFocusedTrack(func(tr timeline.Track, req *session.PatchTrack) {
			v := clampF(tr.Volume-0.05, 0, 1)
			req.Volume = &v
		})
	case key.Matches(msg, m.keys.VolumeUp):
		return m, m.patchFocusedTrack(func(tr timeline.Track, req *session.PatchTrack) {
			v := clampF(tr.Volume+0.05, 0, 1)
			req.Volume = &v
		})
	case key.Matches(msg, m.keys.PanLeft):
		return m, m.patchFocusedTrack(func(tr timeline.Track, req *session.PatchTrack) {
			v := clampF(tr.Pan-0.1, -1, 1)
			req.Pan = &v
		})
	case key.Matches(msg, m.keys.PanRight):
		return m, m.patchFocusedTrack(func(tr timeline.Track, req *session.PatchTrack) {
			v := clampF(tr.Pan+0.1, -1, 1)
			req.Pan = &v
		})

	case key.Matches(msg, m.keys.BPMDown):
		return m, m.adjustBPM(-5)
	case key.Matches(msg, m.keys.BPMUp):
		return m, m.adjustBPM(5)

	case key.Matches(msg, m.keys.PitchDown):
		return m, m.transposeSelected(-1)
	case key.Matches(msg, m.keys.PitchUp):
		return m, m.transposeSelected(1)

	case key.Matches(msg, m.keys.CycleDrum):
		m.drum = nextDrum(m.drum)

	case key.Matches(msg, m.keys.FourOnFloor):
		bars := 4
		if st := m.Manager.State(); st != nil {
			bars = st.Meta.Bars
		}
		return m, dispatch(func(ctx context.Context) error {
			return mgr.Apply(ctx, session.ApplyPattern{Pattern: "four", Bars: bars, BaseBar: 0})
		})

	case key.Matches(msg, m.keys.Undo):
		return m, dispatch(func(ctx context.Context) error {
			return mgr.Apply(ctx, session.Undo{Steps: 1})
		})

	case key.Matches(msg, m.keys.RenderPreview):
		return m.startJob(api.JobRenderPreview)
	case key.Matches(msg, m.keys.RenderMixdown):
		return m.startJob(api.JobRenderMixdown)
	case key.Matches(msg, m.keys.GenerateSample):
		return m.startJob(api.JobGenerateSample)

	case key.Matches(msg, m.keys.Audition):
		if m.Player != nil {
			if m.Player.Playing() {
				m.Player.Stop()
			} else {
				m.Player.Play()
			}
		}

	case key.Matches(msg, m.keys.Chat):
		m.chat.Focus()
		return m, textinput.Blink

	default:
		switch msg.String() {
		case "1", "2", "3", "4":
			m.focusedTrack = int(msg.String()[0] - '0')
		}
	}

	return m, nil
}

// patchFocusedTrack builds a track patch from the current cached values
func (m Model) patchFocusedTrack(edit func(timeline.Track, *session.PatchTrack)) tea.Cmd {
	st := m.Manager.State()
	if st == nil {
		return nil
	}
	tr := st.Track(m.focusedTrack)
	if tr == nil {
		return nil
	}
	req := session.PatchTrack{TrackID: tr.ID}
	edit(*tr, &req)
	mgr := m.Manager
	return dispatch(func(ctx context.Context) error {
		return mgr.Apply(ctx, req)
	})
}

// drumKinds is the cycle order for empty-cell clicks
var drumKinds = []string{"kick", "snare", "hihat"}

func nextDrum(d string) string {
	for i, k := range drumKinds {
		if k == d {
			return drumKinds[(i+1)%len(drumKinds)]
		}
	}
	return drumKinds[0]
}

func (m Model) adjustBPM(delta float64) tea.Cmd {
	st := m.Manager.State()
	if st == nil {
		return nil
	}
	bpm := clampF(st.Meta.BPM+delta, 20, 300)
	if bpm == st.Meta.BPM {
		return nil
	}
	mgr := m.Manager
	return dispatch(func(ctx context.Context) error {
		return mgr.Apply(ctx, session.UpdateMeta{BPM: &bpm})
	})
}

// transposeSelected moves the selected melodic event's pitch by semitones
func (m Model) transposeSelected(semitones int) tea.Cmd {
	st := m.Manager.State()
	id, ok := m.Manager.SelectedEvent()
	if st == nil || !ok {
		return nil
	}
	ev := st.Event(id)
	if ev == nil || ev.Type != timeline.TrackMelodic {
		return nil
	}
	n, err := timeline.PitchNumber(ev.Pitch)
	if err != nil {
		return nil
	}
	next := int(n) + semitones
	if next < 0 || next > 127 {
		return nil
	}
	pitch := timeline.PitchName(uint8(next))
	mgr := m.Manager
	return dispatch(func(ctx context.Context) error {
		return mgr.Apply(ctx, session.SetPitch{EventID: id, Pitch: pitch})
	})
}

func (m Model) startJob(kind string) (tea.Model, tea.Cmd) {
	if m.jobRunning {
		return m, nil
	}
	m.jobRunning = true
	m.job = api.Job{Status: api.JobQueued, Type: kind}

	mgr := m.Manager
	jobCh := m.jobCh
	onProgress := func(job api.Job) {
		select {
		case jobCh <- job:
		default:
		}
	}

	st := m.Manager.State()
	focused := m.focusedTrack
	run := func() tea.Msg {
		ctx := context.Background()
		switch kind {
		case api.JobRenderMixdown:
			mgr.RenderMixdown(ctx, api.RenderParams{Seconds: 4}, onProgress)
		case api.JobGenerateSample:
			params := api.GenerateSampleParams{Instrument: "bass", BasePitch: "A1", Seconds: 1.5}
			if st != nil {
				if tr := st.Track(focused); tr != nil {
					if tr.Type == timeline.TrackDrum {
						params.Instrument = "drums"
					} else if tr.Name != "" {
						params.Instrument = tr.Name
					}
				}
			}
			mgr.GenerateSample(ctx, params, onProgress)
		default:
			mgr.RenderPreview(ctx, api.RenderParams{Seconds: 2}, onProgress)
		}
		return jobDoneMsg{}
	}

	return m, tea.Batch(run, m.spin.Tick)
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	mgr := m.Manager

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		lane, x, ok := m.hitLane(msg.X, msg.Y)
		if !ok {
			return m, nil
		}
		st := mgr.State()
		if st == nil {
			return m, nil
		}
		m.focusedTrack = lane

		tick := timeline.PixelToTick(x, float64(m.bounds.laneWidth), st.Meta.TotalTicks)
		if ev := eventAt(st, lane, tick); ev != nil {
			// press on an event starts a drag (which also selects)
			mgr.BeginDrag(ev.ID, x, float64(m.bounds.laneWidth))
			debug.Log("drag", "begin event=%s tick=%d", ev.ID, ev.StartTick)
			return m, nil
		}
		// empty drum cell: grid-click toggle of the active drum
		if tr := st.Track(lane); tr != nil && tr.Type == timeline.TrackDrum {
			drum := m.drum
			return m, dispatch(func(ctx context.Context) error {
				return mgr.ToggleDrumAt(ctx, tick, drum)
			})
		}
		return m, nil

	case tea.MouseActionMotion:
		if _, _, active := mgr.DragPreview(); active {
			_, x, _ := m.hitLane(msg.X, msg.Y)
			mgr.MoveDrag(x)
		}
		return m, nil

	case tea.MouseActionRelease:
		if _, _, active := mgr.DragPreview(); active {
			return m, dispatch(func(ctx context.Context) error {
				return mgr.ReleaseDrag(ctx)
			})
		}
		return m, nil
	}

	return m, nil
}

// hitLane maps screen coordinates to (trackID, x within lane). x is
// reported even when y misses all lanes so mid-drag motion above or
// below the lanes keeps tracking horizontally.
func (m Model) hitLane(x, y int) (int, float64, bool) {
	relX := float64(x - m.bounds.laneLeft)
	lane := y - m.bounds.timelineTop + 1
	if lane < 1 || lane > timeline.NumTracks {
		return 0, relX, false
	}
	return lane, relX, true
}

// eventAt finds the event covering a tick on a track (drums occupy their
// start tick only; melodic notes span their duration)
func eventAt(st *timeline.ProjectState, trackID, tick int) *timeline.Event {
	for i := range st.Events {
		ev := &st.Events[i]
		if ev.TrackID != trackID {
			continue
		}
		if ev.Type == timeline.TrackDrum {
			if ev.StartTick == tick {
				return ev
			}
			continue
		}
		if tick >= ev.StartTick && tick < ev.StartTick+ev.DurationTick {
			return ev
		}
	}
	return nil
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
