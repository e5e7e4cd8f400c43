package theme

type RGB [3]uint8

type Palette struct {
	Name   string
	Colors []RGB
}

// DefaultPalette is a deep-blue-to-amber ramp tuned for the timeline view
func DefaultPalette() *Palette {
	return &Palette{
		Name: "harbor",
		Colors: []RGB{
			{0x10, 0x12, 0x24}, // near-black blue
			{0x1c, 0x23, 0x41}, // dark blue
			{0x2e, 0x3a, 0x63}, // slate
			{0x51, 0x6b, 0x94}, // steel
			{0x7f, 0x9a, 0xb8}, // readable fg
			{0x46, 0xb2, 0x9a}, // teal accent
			{0xe8, 0xc1, 0x5a}, // amber
			{0xe8, 0x8a, 0x4a}, // orange
			{0xd9, 0x4f, 0x4f}, // red
		},
	}
}

// Lookup returns interpolated color for normalized value 0-1
func (p *Palette) Lookup(norm float64) RGB {
	if norm <= 0 {
		return p.Colors[0]
	}
	if norm >= 1 {
		return p.Colors[len(p.Colors)-1]
	}

	// Find the two colors to interpolate between
	pos := norm * float64(len(p.Colors)-1)
	i := int(pos)
	frac := pos - float64(i)

	c0 := p.Colors[i]
	c1 := p.Colors[i+1]

	return RGB{
		lerp(c0[0], c1[0], frac),
		lerp(c0[1], c1[1], frac),
		lerp(c0[2], c1[2], frac),
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a)*(1-t) + float64(b)*t)
}

// Index returns color at specific index (no interpolation)
func (p *Palette) Index(i int) RGB {
	if i < 0 {
		return p.Colors[0]
	}
	if i >= len(p.Colors) {
		return p.Colors[len(p.Colors)-1]
	}
	return p.Colors[i]
}
