package charts

import (
	"image/color"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// GeneratePalette returns n visually distinct colours as hex strings, evenly
// spaced around the hue circle at lightness 0.5 and saturation 0.8.
func GeneratePalette(n int) []string {
	colors := make([]string, n)
	for i := 0; i < n; i++ {
		colors[i] = colorful.Hsl(360*float64(i)/float64(n), 0.8, 0.5).Hex()
	}
	return colors
}

// ColorMap assigns each action type a colour. The assignment depends only on
// the set of types, never on the player being drawn.
func ColorMap(types []string) map[string]string {
	sorted := append([]string(nil), types...)
	sort.Strings(sorted)

	palette := GeneratePalette(len(sorted))
	colors := make(map[string]string, len(sorted))
	for i, t := range sorted {
		colors[t] = palette[i]
	}
	return colors
}

// parseHex decodes a "#rrggbb" colour, falling back to mid grey.
func parseHex(s string) color.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.Gray{Y: 128}
	}
	return c
}
