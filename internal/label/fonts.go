package label

import (
	"fmt"
	"os"
	"strings"

	woff "github.com/tdewolff/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Style selects a face within a FontSet.
type Style int

const (
	Regular Style = iota
	Bold
	Italic
)

// FontPaths points at optional TTF, OTF or WOFF2 files. Empty entries use
// the embedded Go fonts.
type FontPaths struct {
	Regular string
	Bold    string
	Italic  string
}

// FontSet holds parsed fonts. It is safe for concurrent use; the faces it
// creates are not.
type FontSet struct {
	fonts [3]*opentype.Font
}

// LoadFonts parses the configured font files, falling back to the Go fonts.
func LoadFonts(paths FontPaths) (*FontSet, error) {
	specs := [3]struct {
		path     string
		fallback []byte
	}{
		{paths.Regular, goregular.TTF},
		{paths.Bold, gobold.TTF},
		{paths.Italic, goitalic.TTF},
	}

	var fs FontSet
	for i, s := range specs {
		data := s.fallback
		if s.path != "" {
			b, err := readFontFile(s.path)
			if err != nil {
				return nil, err
			}
			data = b
		}
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %q: %w", s.path, err)
		}
		fs.fonts[i] = f
	}
	return &fs, nil
}

// readFontFile loads a font file, converting WOFF2 to SFNT.
func readFontFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	if isWOFF2(path, data) {
		sfnt, err := woff.ToSFNT(data)
		if err != nil {
			return nil, fmt.Errorf("convert woff2 %q: %w", path, err)
		}
		return sfnt, nil
	}
	return data, nil
}

// isWOFF2 checks the extension or the "wOF2" magic.
func isWOFF2(path string, data []byte) bool {
	if strings.HasSuffix(strings.ToLower(path), ".woff2") {
		return true
	}
	return len(data) >= 4 && string(data[:4]) == "wOF2"
}

// Face creates a new face of the given style at size points (72 DPI, so
// points equal pixels).
func (fs *FontSet) Face(style Style, size float64) (font.Face, error) {
	if style < Regular || style > Italic {
		style = Regular
	}
	face, err := opentype.NewFace(fs.fonts[style], &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}
