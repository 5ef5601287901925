package imagepkg

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ScaleToWidth resizes img to width w keeping its aspect ratio. Sprites are
// pixel art, so nearest-neighbor keeps their edges hard.
func ScaleToWidth(img image.Image, w int) *image.NRGBA {
	if img.Bounds().Dx() == w {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, w, 0, imaging.NearestNeighbor)
}

// ScaleSquare resizes img to exactly size×size.
func ScaleSquare(img image.Image, size int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == size && b.Dy() == size {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, size, size, imaging.NearestNeighbor)
}

// Shadow describes a drop shadow silhouette.
type Shadow struct {
	Color color.NRGBA
	Sigma float64
}

// DropShadow returns a silhouette of img in the shadow color, blurred by
// sigma. The silhouette's alpha is the image alpha scaled by the shadow alpha.
// The result is padded so the blur is not clipped; pad is the offset of the
// original image inside it.
func DropShadow(img image.Image, s Shadow) (shadow *image.NRGBA, pad int) {
	pad = int(s.Sigma*3 + 0.5)
	b := img.Bounds()
	canvas := imaging.New(b.Dx()+2*pad, b.Dy()+2*pad, color.NRGBA{})
	canvas = imaging.Paste(canvas, img, image.Pt(pad, pad))

	silhouette := imaging.AdjustFunc(canvas, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: s.Color.R,
			G: s.Color.G,
			B: s.Color.B,
			A: uint8(uint16(c.A) * uint16(s.Color.A) / 255),
		}
	})
	if s.Sigma <= 0 {
		return silhouette, pad
	}
	return imaging.Blur(silhouette, s.Sigma), pad
}
