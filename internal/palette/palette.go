// Package palette maps creature types to display colors and derives the
// fills, plate colors and text colors a label is painted with.
package palette

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
)

// Hex is an "#RRGGBB" color string.
type Hex string

const (
	White Hex = "#FFFFFF"
	Black Hex = "#000000"
)

// typeColors is the fixed type table. Keys are lower-case type tags.
var typeColors = map[string]Hex{
	"normal":   "#A8A77A",
	"fire":     "#EE8130",
	"water":    "#6390F0",
	"electric": "#F7D02C",
	"grass":    "#7AC74C",
	"ice":      "#96D9D6",
	"fighting": "#C22E28",
	"poison":   "#A33EA1",
	"ground":   "#E2BF65",
	"flying":   "#A98FF3",
	"psychic":  "#F95587",
	"bug":      "#A6B91A",
	"rock":     "#B6A136",
	"ghost":    "#735797",
	"dragon":   "#6F35FC",
	"dark":     "#705746",
	"steel":    "#B7B7CE",
	"fairy":    "#D685AD",
}

// typeOrder lists the tags in the canonical order used for listings.
var typeOrder = []string{
	"normal", "fire", "water", "electric", "grass", "ice",
	"fighting", "poison", "ground", "flying", "psychic", "bug",
	"rock", "ghost", "dragon", "dark", "steel", "fairy",
}

// Types returns the known type tags in canonical order.
func Types() []string {
	out := make([]string, len(typeOrder))
	copy(out, typeOrder)
	return out
}

// TypeColor returns the display color for a type tag. Unknown tags are white.
func TypeColor(tag string) Hex {
	if c, ok := typeColors[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return c
	}
	return White
}

// ParseHex decodes "#RRGGBB" (the leading "#" is optional).
func ParseHex(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: must be 6 hex digits", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// RGBA returns h as an opaque color. Malformed values decode as white.
func (h Hex) RGBA() color.NRGBA {
	c, err := ParseHex(string(h))
	if err != nil {
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return c
}

// FromColor encodes the RGB channels of c, ignoring alpha.
func FromColor(c color.Color) Hex {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Hex(fmt.Sprintf("#%02X%02X%02X", n.R, n.G, n.B))
}

// luminance1000 is 0.299R + 0.587G + 0.114B scaled by 1000 so the
// threshold comparison is exact.
func luminance1000(c color.NRGBA) int {
	return 299*int(c.R) + 587*int(c.G) + 114*int(c.B)
}

// ContrastingText returns black for colors brighter than 128 and white
// otherwise.
func ContrastingText(h Hex) Hex {
	if luminance1000(h.RGBA()) > 128*1000 {
		return Black
	}
	return White
}

// Average is the component-wise integer average of a and b.
func Average(a, b Hex) Hex {
	ca, cb := a.RGBA(), b.RGBA()
	return FromColor(color.NRGBA{
		R: uint8((int(ca.R) + int(cb.R)) / 2),
		G: uint8((int(ca.G) + int(cb.G)) / 2),
		B: uint8((int(ca.B) + int(cb.B)) / 2),
		A: 255,
	})
}

// AdjustBrightness shifts every channel by round(percent/100*255), clamping
// to [0,255]. Negative percentages darken.
func AdjustBrightness(h Hex, percent float64) Hex {
	c := h.RGBA()
	delta := int(math.Round(percent / 100 * 255))
	return FromColor(color.NRGBA{
		R: clamp(int(c.R) + delta),
		G: clamp(int(c.G) + delta),
		B: clamp(int(c.B) + delta),
		A: 255,
	})
}

func clamp(v int) uint8 {
	return uint8(max(0, min(255, v)))
}

// Colors returns the display colors for the first two types.
func Colors(types []string) []Hex {
	n := min(len(types), 2)
	out := make([]Hex, 0, n)
	for _, t := range types[:n] {
		out = append(out, TypeColor(t))
	}
	return out
}

// Fill returns the background pattern for a canvas of the given width: a
// solid fill for one type, a left-to-right gradient for two.
func Fill(types []string, width float64) gg.Pattern {
	colors := Colors(types)
	switch len(colors) {
	case 0:
		return gg.NewSolidPattern(White.RGBA())
	case 1:
		return gg.NewSolidPattern(colors[0].RGBA())
	}
	grad := gg.NewLinearGradient(0, 0, width, 0)
	grad.AddColorStop(0, colors[0].RGBA())
	grad.AddColorStop(1, colors[1].RGBA())
	return grad
}

// TextColor picks the label text color. Dual-type labels are measured
// against white rather than the gradient.
func TextColor(types []string) Hex {
	colors := Colors(types)
	if len(colors) == 1 {
		return ContrastingText(colors[0])
	}
	return ContrastingText(White)
}

// PlateColor is the name plate fill: the single type color darkened by 20%,
// or the average of both type colors.
func PlateColor(types []string) Hex {
	colors := Colors(types)
	switch len(colors) {
	case 0:
		return AdjustBrightness(White, -20)
	case 1:
		return AdjustBrightness(colors[0], -20)
	}
	return Average(colors[0], colors[1])
}
