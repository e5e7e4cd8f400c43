package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the timeline keybindings
type KeyMap struct {
	NudgeLeft        key.Binding
	NudgeRight       key.Binding
	NudgeLeftCoarse  key.Binding
	NudgeRightCoarse key.Binding
	CycleGrid        key.Binding
	Mute             key.Binding
	Solo             key.Binding
	VolumeDown       key.Binding
	VolumeUp         key.Binding
	PanLeft          key.Binding
	PanRight         key.Binding
	BPMDown          key.Binding
	BPMUp            key.Binding
	PitchDown        key.Binding
	PitchUp          key.Binding
	CycleDrum        key.Binding
	FourOnFloor      key.Binding
	Undo             key.Binding
	RenderPreview    key.Binding
	RenderMixdown    key.Binding
	GenerateSample   key.Binding
	Audition         key.Binding
	Chat             key.Binding
	Deselect         key.Binding
	Quit             key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NudgeLeft:        key.NewBinding(key.WithKeys("left"), key.WithHelp("←/→", "nudge")),
		NudgeRight:       key.NewBinding(key.WithKeys("right")),
		NudgeLeftCoarse:  key.NewBinding(key.WithKeys("shift+left"), key.WithHelp("shift+←/→", "nudge x4")),
		NudgeRightCoarse: key.NewBinding(key.WithKeys("shift+right")),
		CycleGrid:        key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "grid")),
		Mute:             key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		Solo:             key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "solo")),
		VolumeDown:       key.NewBinding(key.WithKeys("-"), key.WithHelp("-/=", "volume")),
		VolumeUp:         key.NewBinding(key.WithKeys("=", "+")),
		PanLeft:          key.NewBinding(key.WithKeys(","), key.WithHelp(",/.", "pan")),
		PanRight:         key.NewBinding(key.WithKeys(".")),
		BPMDown:          key.NewBinding(key.WithKeys("["), key.WithHelp("[/]", "bpm")),
		BPMUp:            key.NewBinding(key.WithKeys("]")),
		PitchDown:        key.NewBinding(key.WithKeys("j"), key.WithHelp("j/k", "pitch")),
		PitchUp:          key.NewBinding(key.WithKeys("k")),
		CycleDrum:        key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "drum")),
		FourOnFloor:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "4-on-floor")),
		Undo:             key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		RenderPreview:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "preview")),
		RenderMixdown:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "mixdown")),
		GenerateSample:   key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "gen sample")),
		Audition:         key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "audition")),
		Chat:             key.NewBinding(key.WithKeys("c", "/"), key.WithHelp("c", "chat")),
		Deselect:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "deselect")),
		Quit:             key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
