package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Timeline cells
	CellEmpty   rune // · no event at this grid step
	CellDrum    rune // ● drum hit
	CellMelodic rune // ◆ melodic note start
	CellSustain rune // ─ melodic note continuation
	Playhead    rune // ▶ transport position

	// Drag preview
	Ghost rune // ░ previewed position while dragging

	// Track controls
	MuteOn  rune // M
	SoloOn  rune // S
	BarMark rune // | bar boundary
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			CellEmpty:   '·',
			CellDrum:    '●',
			CellMelodic: '◆',
			CellSustain: '─',
			Playhead:    '▶',
			Ghost:       '░',
			MuteOn:      'M',
			SoloOn:      'S',
			BarMark:     '|',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG       = 0.0
	RoleSurface  = 0.12
	RoleMuted    = 0.3
	RoleFG       = 0.5
	RoleAccent   = 0.62
	RoleSelected = 0.75
	RoleWarning  = 0.85
	RoleError    = 1.0
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Selected() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSelected))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Error() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleError))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
