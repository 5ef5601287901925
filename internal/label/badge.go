package label

import (
	"context"
	"image"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"

	imagepkg "github.com/youruser/dexlabel/internal/image"
	"github.com/youruser/dexlabel/internal/palette"
)

// Badges resolves type badge images. With a base directory or URL, badges
// are loaded from "<base>/<type>.png"; without one they are drawn.
type Badges struct {
	Base   string
	Loader *imagepkg.Loader
	Fonts  *FontSet
	Width  int
	Height int
}

// Ref returns where the badge for tag lives, or "" when badges are drawn.
func (b Badges) Ref(tag string) string {
	if b.Base == "" {
		return ""
	}
	name := strings.ToLower(tag) + ".png"
	if strings.HasPrefix(b.Base, "http://") || strings.HasPrefix(b.Base, "https://") {
		return strings.TrimRight(b.Base, "/") + "/" + name
	}
	return filepath.Join(b.Base, name)
}

// Source returns the image source for tag's badge.
func (b Badges) Source(tag string) imagepkg.Source {
	if ref := b.Ref(tag); ref != "" {
		return b.Loader.Fetch(ref)
	}
	return func(ctx context.Context) (image.Image, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return DrawBadge(b.Fonts, tag, b.Width, b.Height)
	}
}

// DrawBadge paints a rounded pill in the type color with the upper-cased tag
// centered on it.
func DrawBadge(fonts *FontSet, tag string, w, h int) (image.Image, error) {
	face, err := fonts.Face(Bold, float64(h)*0.55)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	fill := palette.TypeColor(tag)
	dc := gg.NewContext(w, h)
	dc.DrawRoundedRectangle(0, 0, float64(w), float64(h), float64(h)/2)
	dc.SetColor(fill.RGBA())
	dc.Fill()

	dc.SetFontFace(face)
	dc.SetColor(palette.ContrastingText(fill).RGBA())
	dc.DrawStringAnchored(strings.ToUpper(tag), float64(w)/2, float64(h)/2, 0.5, 0.5)
	return dc.Image(), nil
}
