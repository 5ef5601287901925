package label

import "image/color"

// Point is a canvas position. For text, Y is the baseline.
type Point struct {
	X, Y float64
}

// Layout holds every fixed position and size used to paint a label pair.
// It is a plain value; the composer keeps its own copy.
type Layout struct {
	Width, Height int

	BorderInset float64
	BorderWidth float64

	// Front.
	NameAt       Point
	NameSize     float64
	PlatePadX    float64
	PlatePadY    float64
	PlateRadius  float64
	PlateOutline float64
	NumberAt     Point
	NumberSize   float64
	BadgeAt      Point
	BadgeW       int
	BadgeH       int
	BadgeStep    float64
	StatsAt      Point // height line; weight follows one StatsStep lower
	StatsStep    float64
	StatsSize    float64
	SpriteAt     Point
	SpriteWidth  int
	SpriteShadow ShadowStyle

	// Back.
	GenusAt        Point
	GenusSize      float64
	FlavorAt       Point
	FlavorSize     float64
	FlavorWidth    float64
	FlavorLeading  float64
	HabitatGap     float64
	HabitatSize    float64
	CatchStep      float64
	BackSpriteAt   Point
	BackSpriteW    int
	QRSize         int
	QRMarginRight  int
	QRMarginBottom int
}

// ShadowStyle is the drop shadow drawn under sprites.
type ShadowStyle struct {
	Color   color.NRGBA
	Sigma   float64
	OffsetX int
	OffsetY int
}

// DefaultLayout is the 825×237 label layout.
func DefaultLayout() Layout {
	return Layout{
		Width:  825,
		Height: 237,

		BorderInset: 6,
		BorderWidth: 4,

		NameAt:       Point{X: 30, Y: 58},
		NameSize:     44,
		PlatePadX:    12,
		PlatePadY:    6,
		PlateRadius:  10,
		PlateOutline: 2,
		NumberAt:     Point{X: 20, Y: 108},
		NumberSize:   32,
		BadgeAt:      Point{X: 20, Y: 122},
		BadgeW:       100,
		BadgeH:       30,
		BadgeStep:    110,
		StatsAt:      Point{X: 20, Y: 186},
		StatsStep:    30,
		StatsSize:    26,
		SpriteAt:     Point{X: 580, Y: 8},
		SpriteWidth:  220,
		SpriteShadow: ShadowStyle{
			Color:   color.NRGBA{A: 110},
			Sigma:   4,
			OffsetX: 6,
			OffsetY: 6,
		},

		GenusAt:        Point{X: 20, Y: 40},
		GenusSize:      28,
		FlavorAt:       Point{X: 20, Y: 76},
		FlavorSize:     22,
		FlavorWidth:    560,
		FlavorLeading:  28,
		HabitatGap:     12,
		HabitatSize:    24,
		CatchStep:      28,
		BackSpriteAt:   Point{X: 600, Y: 14},
		BackSpriteW:    110,
		QRSize:         80,
		QRMarginRight:  20,
		QRMarginBottom: 20,
	}
}

// QRPoint is the top-left corner of the bottom-right aligned QR code.
func (l Layout) QRPoint() (x, y int) {
	return l.Width - l.QRSize - l.QRMarginRight, l.Height - l.QRSize - l.QRMarginBottom
}
