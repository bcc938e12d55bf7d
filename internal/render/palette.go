package render

import "sort"

// Palette is a character ramp ordered from least to most ink.
type Palette struct {
	Name string
	Ramp []rune
}

// DefaultPalette is the ramp used when none is configured.
const DefaultPalette = "very-detailed"

var palettes = map[string]Palette{
	"very-detailed": {Name: "very-detailed", Ramp: []rune(" .'`^\",:;Il!i><~+_-?][}{1)(|\\/tfjrxnuvczXYUJCLQ0OZmwqpdbkhao*#MW&8%B@$")},
	"detailed":      {Name: "detailed", Ramp: []rune(" .:-=+*#%@")},
	"simple":        {Name: "simple", Ramp: []rune(" .:oO@")},
	"blocks":        {Name: "blocks", Ramp: []rune(" ░▒▓█")},
}

// LookupPalette returns the palette registered under name.
func LookupPalette(name string) (Palette, bool) {
	p, ok := palettes[name]
	return p, ok
}

// PaletteNames lists the registered palettes alphabetically.
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
