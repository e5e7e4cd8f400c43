// Package audition plays the timeline locally over MIDI so edits can be
// heard without waiting for a server render. It sends note on/off only;
// all actual audio stays on the server side.
package audition

import (
	"fmt"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"gridseq/debug"
	"gridseq/timeline"
)

// GM drum notes for the stock drum sample ids
var drumNotes = map[string]uint8{
	"kick":  36,
	"snare": 38,
	"hihat": 42,
}

// StateFunc returns the current authoritative state snapshot
type StateFunc func() *timeline.ProjectState

// tickDuration is the wall time of one tick at the project's tempo.
// Unset or invalid meta falls back to 120 bpm, 4 ticks per beat.
func tickDuration(m timeline.Meta) time.Duration {
	tpb := m.TicksPerBeat
	if tpb < 1 {
		tpb = 4
	}
	bpm := m.BPM
	if bpm <= 0 {
		bpm = 120
	}
	return time.Duration(float64(time.Minute) / bpm / float64(tpb))
}

// Player steps a playhead through the project at its BPM and emits MIDI
// for events whose start tick is reached.
type Player struct {
	state  StateFunc
	sender func(gomidi.Message) error

	mu      sync.RWMutex
	playing bool
	tick    int
	stop    chan struct{}

	// Notify TUI of playhead movement
	UpdateChan chan struct{}
}

// NewPlayer opens the named MIDI out port ("" = first available)
func NewPlayer(portName string, state StateFunc) (*Player, error) {
	ports := gomidi.GetOutPorts()
	if len(ports) == 0 {
		return nil, fmt.Errorf("no MIDI output ports")
	}

	port := ports[0]
	if portName != "" {
		found := false
		for _, p := range ports {
			if strings.Contains(p.String(), portName) {
				port = p
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("MIDI port %q not found", portName)
		}
	}

	sender, err := gomidi.SendTo(port)
	if err != nil {
		return nil, err
	}
	debug.Log("audition", "opened MIDI out %s", port.String())

	return &Player{
		state:      state,
		sender:     sender,
		UpdateChan: make(chan struct{}, 1),
	}, nil
}

// Playing reports transport state
func (p *Player) Playing() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.playing
}

// Tick returns the current playhead tick
func (p *Player) Tick() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tick
}

// Play starts the transport from tick 0
func (p *Player) Play() {
	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()
		return
	}
	p.playing = true
	p.tick = 0
	p.stop = make(chan struct{})
	stop := p.stop
	p.mu.Unlock()

	go p.run(stop)
}

// Stop halts the transport and silences held notes
func (p *Player) Stop() {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return
	}
	p.playing = false
	close(p.stop)
	p.mu.Unlock()

	p.allNotesOff()
	p.notify()
}

func (p *Player) notify() {
	select {
	case p.UpdateChan <- struct{}{}:
	default:
	}
}

func (p *Player) run(stop chan struct{}) {
	for {
		st := p.state()
		if st == nil {
			p.Stop()
			return
		}

		interval := tickDuration(st.Meta)

		p.mu.RLock()
		tick := p.tick
		p.mu.RUnlock()

		p.emit(st, tick)

		select {
		case <-stop:
			return
		case <-time.After(interval):
		}

		p.mu.Lock()
		p.tick++
		if p.tick >= st.Meta.TotalTicks {
			p.tick = 0 // loop
		}
		p.mu.Unlock()
		p.notify()
	}
}

// emit sends note-ons for events starting at this tick, honoring
// mute/solo, and schedules their note-offs
func (p *Player) emit(st *timeline.ProjectState, tick int) {
	soloed := false
	for _, tr := range st.Tracks {
		if tr.Solo {
			soloed = true
			break
		}
	}

	for _, ev := range st.Events {
		if ev.StartTick != tick {
			continue
		}
		tr := st.Track(ev.TrackID)
		if tr == nil || tr.Mute || (soloed && !tr.Solo) {
			continue
		}

		note, ok := eventNote(ev)
		if !ok {
			continue
		}
		ch := uint8(ev.TrackID - 1)
		vel := uint8(ev.Velocity * 127)
		if vel == 0 {
			vel = 100
		}

		p.sender(gomidi.NoteOn(ch, note, vel))

		dur := ev.DurationTick
		if dur < 1 {
			dur = 1
		}
		offAfter := time.Duration(dur) * tickDuration(st.Meta)
		go func(ch, note uint8) {
			time.Sleep(offAfter)
			p.sender(gomidi.NoteOff(ch, note))
		}(ch, note)
	}
}

// eventNote maps an event to a MIDI note number
func eventNote(ev timeline.Event) (uint8, bool) {
	if ev.Type == timeline.TrackMelodic {
		if ev.Pitch == "" {
			return 0, false
		}
		n, err := timeline.PitchNumber(ev.Pitch)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	for name, note := range drumNotes {
		if strings.Contains(ev.SampleID, name) {
			return note, true
		}
	}
	return 36, true // unknown drum sample: kick
}

func (p *Player) allNotesOff() {
	for ch := uint8(0); ch < timeline.NumTracks; ch++ {
		for note := uint8(0); note < 128; note++ {
			p.sender(gomidi.NoteOff(ch, note))
		}
	}
}
