// Package textwrap breaks text into lines that fit a pixel width.
package textwrap

import (
	"strings"

	"golang.org/x/image/font"
)

// Measure reports the rendered width of s in pixels.
type Measure func(s string) float64

// FaceMeasure measures strings with a font face.
func FaceMeasure(face font.Face) Measure {
	return func(s string) float64 {
		return float64(font.MeasureString(face, s)) / 64
	}
}

var controlSpaces = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\f", " ")

// Normalize replaces line and form feeds with spaces.
func Normalize(text string) string {
	return controlSpaces.Replace(text)
}

// Wrap greedily packs the words of text into lines no wider than maxWidth.
// A word that is wider than maxWidth on its own gets a line to itself; it is
// never split.
func Wrap(text string, maxWidth float64, measure Measure) []string {
	words := strings.Fields(Normalize(text))
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if measure(candidate) > maxWidth {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, current)
}
