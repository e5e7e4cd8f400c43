package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gridseq/timeline"
)

const feedLines = 6

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	errStyle := lipgloss.NewStyle().Foreground(m.Theme.Error())

	st := m.Manager.State()

	var out strings.Builder
	out.WriteString("\n")

	if st == nil {
		out.WriteString(headerStyle.Render("gridseq  (no project)"))
		out.WriteString("\n\n")
		out.WriteString(dimStyle.Render("any edit creates a project - try c for chat, or click once connected"))
		out.WriteString("\n\n")
		out.WriteString(m.feedView(dimStyle, errStyle))
		out.WriteString(m.chatView())
		out.WriteString("\n")
		out.WriteString(m.helpView(dimStyle))
		return out.String()
	}

	playState := ""
	if m.Player != nil && m.Player.Playing() {
		playState = fmt.Sprintf("  %c %02d", m.Theme.Symbols.Playhead, m.Player.Tick())
	}
	header := headerStyle.Render(fmt.Sprintf(
		"gridseq  %s  %gbpm  %dbars  swing %.2f  grid:%s  drum:%s%s",
		st.Name, st.Meta.BPM, st.Meta.Bars, st.Meta.Swing, m.Manager.Grid(), m.drum, playState,
	))
	out.WriteString(header)
	out.WriteString("\n\n")

	// lane labels are fixed width; cells start right after
	labels := make([]string, 0, timeline.NumTracks)
	for _, tr := range st.Tracks {
		labels = append(labels, m.laneLabel(tr))
	}
	laneLeft := 0
	for _, l := range labels {
		if w := lipgloss.Width(l); w > laneLeft {
			laneLeft = w
		}
	}

	// ruler with bar numbers
	out.WriteString(strings.Repeat(" ", laneLeft))
	out.WriteString(dimStyle.Render(m.rulerView(st.Meta)))
	out.WriteString("\n")

	// cache layout for mouse hit testing
	headerHeight := lipgloss.Height(header)
	m.bounds.timelineTop = 1 + headerHeight + 1 + 1 // blank, header, blank, ruler
	m.bounds.laneLeft = laneLeft
	m.bounds.laneWidth = st.Meta.TotalTicks

	for i, tr := range st.Tracks {
		label := labels[i]
		if pad := laneLeft - lipgloss.Width(label); pad > 0 {
			label += strings.Repeat(" ", pad)
		}
		out.WriteString(label)
		out.WriteString(m.laneView(st, tr))
		out.WriteString("\n")
	}
	out.WriteString("\n")

	out.WriteString(m.samplesView(st, dimStyle))
	out.WriteString(m.jobView())
	out.WriteString(m.feedView(dimStyle, errStyle))
	out.WriteString(m.chatView())
	out.WriteString("\n")
	out.WriteString(m.helpView(dimStyle))

	return out.String()
}

func (m Model) laneLabel(tr timeline.Track) string {
	focus := " "
	if tr.ID == m.focusedTrack {
		focus = ">"
	}
	mute := "·"
	if tr.Mute {
		mute = string(m.Theme.Symbols.MuteOn)
	}
	solo := "·"
	if tr.Solo {
		solo = string(m.Theme.Symbols.SoloOn)
	}

	label := fmt.Sprintf("%s%d %-5s %.2f %+4.1f %s%s ",
		focus, tr.ID, tr.Name, tr.Volume, tr.Pan, mute, solo)

	style := lipgloss.NewStyle().Foreground(m.Theme.FG())
	if tr.ID == m.focusedTrack {
		style = style.Foreground(m.Theme.Accent())
	}
	if tr.Mute {
		style = style.Foreground(m.Theme.Muted())
	}
	return style.Render(label)
}

func (m Model) rulerView(meta timeline.Meta) string {
	cells := make([]rune, meta.TotalTicks)
	for i := range cells {
		cells[i] = ' '
	}
	for bar := 0; bar*meta.TicksPerBar < meta.TotalTicks; bar++ {
		for i, r := range fmt.Sprintf("%d", bar+1) {
			pos := bar*meta.TicksPerBar + i
			if pos < len(cells) {
				cells[pos] = r
			}
		}
	}
	return string(cells)
}

// laneView renders one track's events as one cell per tick. The drag
// session's preview overrides the dragged event's position; nothing else
// ever deviates from the cached authoritative state.
func (m Model) laneView(st *timeline.ProjectState, tr timeline.Track) string {
	total := st.Meta.TotalTicks
	type cell struct {
		r        rune
		selected bool
		ghost    bool
	}
	cells := make([]cell, total)
	for i := range cells {
		cells[i] = cell{r: m.Theme.Symbols.CellEmpty}
	}

	dragID, dragTick, dragging := m.Manager.DragPreview()
	selID, _ := m.Manager.SelectedEvent()

	for _, ev := range st.TrackEvents(tr.ID) {
		start := ev.StartTick
		ghost := false
		if dragging && ev.ID == dragID {
			start = dragTick
			ghost = true
		}
		if start >= total {
			start = total - 1
		}
		if start < 0 {
			start = 0
		}

		sym := m.Theme.Symbols.CellDrum
		if ev.Type == timeline.TrackMelodic {
			sym = m.Theme.Symbols.CellMelodic
		}
		cells[start] = cell{r: sym, selected: ev.ID == selID, ghost: ghost}

		if ev.Type == timeline.TrackMelodic {
			for d := 1; d < ev.DurationTick && start+d < total; d++ {
				cells[start+d] = cell{r: m.Theme.Symbols.CellSustain, selected: ev.ID == selID, ghost: ghost}
			}
		}
	}

	playTick := -1
	if m.Player != nil && m.Player.Playing() {
		playTick = m.Player.Tick()
	}

	empty := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	event := lipgloss.NewStyle().Foreground(m.Theme.FG())
	selected := lipgloss.NewStyle().Foreground(m.Theme.Selected()).Bold(true)
	ghost := lipgloss.NewStyle().Foreground(m.Theme.Warning())
	playhead := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true)

	var b strings.Builder
	for i, c := range cells {
		s := string(c.r)
		switch {
		case i == playTick:
			b.WriteString(playhead.Render(s))
		case c.ghost:
			b.WriteString(ghost.Render(string(m.Theme.Symbols.Ghost)))
		case c.selected:
			b.WriteString(selected.Render(s))
		case c.r == m.Theme.Symbols.CellEmpty:
			b.WriteString(empty.Render(s))
		default:
			b.WriteString(event.Render(s))
		}
	}
	return b.String()
}

func (m Model) samplesView(st *timeline.ProjectState, dim lipgloss.Style) string {
	if len(st.Samples) == 0 {
		return ""
	}
	ids := make([]string, 0, len(st.Samples))
	for id := range st.Samples {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString(dim.Render("samples:"))
	for i, id := range ids {
		if i >= 4 {
			b.WriteString(dim.Render(fmt.Sprintf(" (+%d more)", len(ids)-i)))
			break
		}
		s := st.Samples[id]
		b.WriteString(dim.Render(fmt.Sprintf(" %s(%s %s)", id, s.Instrument, s.BasePitch)))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) jobView() string {
	if !m.jobRunning {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(m.Theme.Warning())
	return style.Render(fmt.Sprintf("%s %s %d%%  %s",
		m.spin.View(), m.job.Type, m.job.Progress, m.job.Message)) + "\n"
}

func (m Model) feedView(dim, errStyle lipgloss.Style) string {
	feed := m.Manager.Feed()
	if len(feed) > feedLines {
		feed = feed[len(feed)-feedLines:]
	}
	var b strings.Builder
	for _, line := range feed {
		if strings.HasPrefix(line, "error:") || strings.HasPrefix(line, "rejected:") {
			b.WriteString(errStyle.Render(line))
		} else {
			b.WriteString(dim.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) chatView() string {
	prompt := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Render("chat>")
	return prompt + " " + m.chat.View()
}

func (m Model) helpView(dim lipgloss.Style) string {
	return dim.Render("1-4:track  m/s:mute/solo  -/=:vol  ,/.:pan  [/]:bpm  ←/→:nudge  j/k:pitch  d:drum  f:4-on-floor  g:grid  u:undo  r/R:render  G:sample  space:audition  c:chat  q:quit")
}
