// Package label paints the front and back canvases of a creature label.
//
// Each canvas is built in a fixed order: background, border, static text,
// then, once the canvas's image dependencies have all loaded, the badges,
// sprites and QR code. Both dependency groups start loading as soon as a Job
// begins; the front canvas can finish while the back is still loading.
package label

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	imagepkg "github.com/youruser/dexlabel/internal/image"
	"github.com/youruser/dexlabel/internal/palette"
	"github.com/youruser/dexlabel/internal/textwrap"
)

// Side names one canvas of a label pair.
type Side string

const (
	Front Side = "front"
	Back  Side = "back"
)

// Dependency keys.
const (
	keySprite = "sprite"
	keyQR     = "qr"
)

func badgeKey(tag string) string { return "badge:" + tag }

// Options configures a Composer.
type Options struct {
	Layout    Layout
	Fonts     *FontSet
	Loader    *imagepkg.Loader
	BadgeBase string // directory or URL holding <type>.png; empty draws badges
	Log       *slog.Logger
}

// Composer turns Cards into label canvases. It holds no per-render state and
// may be shared.
type Composer struct {
	layout Layout
	fonts  *FontSet
	loader *imagepkg.Loader
	badges Badges
	log    *slog.Logger
}

// NewComposer creates a Composer.
func NewComposer(opt Options) *Composer {
	log := opt.Log
	if log == nil {
		log = slog.Default()
	}
	return &Composer{
		layout: opt.Layout,
		fonts:  opt.Fonts,
		loader: opt.Loader,
		badges: Badges{
			Base:   opt.BadgeBase,
			Loader: opt.Loader,
			Fonts:  opt.Fonts,
			Width:  opt.Layout.BadgeW,
			Height: opt.Layout.BadgeH,
		},
		log: log,
	}
}

// Layout returns the composer's layout.
func (c *Composer) Layout() Layout { return c.layout }

// FrontDeps lists the images the front canvas waits for.
func (c *Composer) FrontDeps(card Card) imagepkg.Group {
	g := imagepkg.Group{}
	for _, t := range limitTypes(card.Types) {
		g[badgeKey(t)] = c.badges.Source(t)
	}
	if card.FrontSprite != "" {
		g[keySprite] = c.loader.Fetch(card.FrontSprite)
	}
	return g
}

// BackDeps lists the images the back canvas waits for.
func (c *Composer) BackDeps(card Card) imagepkg.Group {
	g := imagepkg.Group{
		keyQR: imagepkg.QR(card.CryURL, c.layout.QRSize),
	}
	if card.BackSprite != "" {
		g[keySprite] = c.loader.Fetch(card.BackSprite)
	}
	return g
}

// Job is one render of a label pair.
type Job struct {
	c      *Composer
	card   Card
	ctx    context.Context
	cancel context.CancelFunc
	front  *imagepkg.Pending
	back   *imagepkg.Pending
}

// Begin starts loading both canvases' images and returns immediately.
func (c *Composer) Begin(ctx context.Context, card Card) *Job {
	jctx, cancel := context.WithCancel(ctx)
	return &Job{
		c:      c,
		card:   card,
		ctx:    jctx,
		cancel: cancel,
		front:  c.loader.Start(jctx, c.FrontDeps(card)),
		back:   c.loader.Start(jctx, c.BackDeps(card)),
	}
}

// Close abandons any loads still in flight.
func (j *Job) Close() { j.cancel() }

// Front paints the front canvas. It returns once the badges and sprite have
// loaded and been drawn.
func (j *Job) Front() (image.Image, error) {
	c, l, card := j.c, j.c.layout, j.card

	nameFace, err := c.fonts.Face(Bold, l.NameSize)
	if err != nil {
		return nil, err
	}
	defer nameFace.Close()
	numberFace, err := c.fonts.Face(Regular, l.NumberSize)
	if err != nil {
		return nil, err
	}
	defer numberFace.Close()
	statsFace, err := c.fonts.Face(Regular, l.StatsSize)
	if err != nil {
		return nil, err
	}
	defer statsFace.Close()

	dc := gg.NewContext(l.Width, l.Height)
	text := palette.TextColor(card.Types)
	c.paintBase(dc, card.Types, text)

	dc.SetColor(text.RGBA())
	dc.SetFontFace(nameFace)
	dc.DrawString(card.DisplayName(), l.NameAt.X, l.NameAt.Y)
	dc.SetFontFace(numberFace)
	dc.DrawString(card.NumberText(), l.NumberAt.X, l.NumberAt.Y)

	c.drawNamePlate(dc, nameFace, card, text)

	assets, err := j.front.Wait(j.ctx)
	if err != nil {
		return nil, fmt.Errorf("front canvas: %w", err)
	}

	x := l.BadgeAt.X
	for _, t := range limitTypes(card.Types) {
		badge := imaging.Resize(assets[badgeKey(t)], l.BadgeW, l.BadgeH, imaging.Lanczos)
		dc.DrawImage(badge, int(x), int(l.BadgeAt.Y))
		x += l.BadgeStep
	}
	if sprite, ok := assets[keySprite]; ok {
		c.drawSprite(dc, sprite, l.SpriteAt, l.SpriteWidth)
	}

	dc.SetColor(text.RGBA())
	dc.SetFontFace(statsFace)
	dc.DrawString(card.HeightText(), l.StatsAt.X, l.StatsAt.Y)
	dc.DrawString(card.WeightText(), l.StatsAt.X, l.StatsAt.Y+l.StatsStep)

	c.log.Debug("front canvas composed", "name", card.Name)
	return dc.Image(), nil
}

// Back paints the back canvas. It returns once the QR code and back sprite
// have loaded and been drawn.
func (j *Job) Back() (image.Image, error) {
	c, l, card := j.c, j.c.layout, j.card

	genusFace, err := c.fonts.Face(Italic, l.GenusSize)
	if err != nil {
		return nil, err
	}
	defer genusFace.Close()
	flavorFace, err := c.fonts.Face(Italic, l.FlavorSize)
	if err != nil {
		return nil, err
	}
	defer flavorFace.Close()
	infoFace, err := c.fonts.Face(Regular, l.HabitatSize)
	if err != nil {
		return nil, err
	}
	defer infoFace.Close()

	dc := gg.NewContext(l.Width, l.Height)
	text := palette.TextColor(card.Types)
	c.paintBase(dc, card.Types, text)

	dc.SetColor(text.RGBA())
	dc.SetFontFace(genusFace)
	dc.DrawString(card.GenusText(), l.GenusAt.X, l.GenusAt.Y)

	dc.SetFontFace(flavorFace)
	lines := textwrap.Wrap(card.FlavorText(), l.FlavorWidth, textwrap.FaceMeasure(flavorFace))
	for i, line := range lines {
		dc.DrawString(line, l.FlavorAt.X, l.FlavorAt.Y+float64(i)*l.FlavorLeading)
	}

	habitatY := l.HabitatY(len(lines))
	dc.SetFontFace(infoFace)
	dc.DrawString(card.HabitatText(), l.FlavorAt.X, habitatY)
	dc.DrawString(card.CatchRateText(), l.FlavorAt.X, habitatY+l.CatchStep)

	assets, err := j.back.Wait(j.ctx)
	if err != nil {
		return nil, fmt.Errorf("back canvas: %w", err)
	}

	if sprite, ok := assets[keySprite]; ok {
		c.drawSprite(dc, sprite, l.BackSpriteAt, l.BackSpriteW)
	}
	qx, qy := l.QRPoint()
	dc.DrawImage(imagepkg.ScaleSquare(assets[keyQR], l.QRSize), qx, qy)

	c.log.Debug("back canvas composed", "name", card.Name, "flavor_lines", len(lines))
	return dc.Image(), nil
}

// HabitatY is the habitat baseline below n wrapped flavor lines.
func (l Layout) HabitatY(n int) float64 {
	return l.FlavorAt.Y + float64(n)*l.FlavorLeading + l.HabitatGap
}

// WrapFlavor wraps the card's flavor text exactly as Back draws it.
func (c *Composer) WrapFlavor(card Card) ([]string, error) {
	face, err := c.fonts.Face(Italic, c.layout.FlavorSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()
	return textwrap.Wrap(card.FlavorText(), c.layout.FlavorWidth, textwrap.FaceMeasure(face)), nil
}

// paintBase fills the background and strokes the inset border.
func (c *Composer) paintBase(dc *gg.Context, types []string, border palette.Hex) {
	l := c.layout
	w, h := float64(l.Width), float64(l.Height)

	dc.SetFillStyle(palette.Fill(types, w))
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	half := l.BorderWidth / 2
	dc.SetColor(border.RGBA())
	dc.SetLineWidth(l.BorderWidth)
	dc.DrawRectangle(l.BorderInset+half, l.BorderInset+half, w-2*(l.BorderInset+half), h-2*(l.BorderInset+half))
	dc.Stroke()
}

// PlateRect is the name plate's rectangle for a measured name.
func (l Layout) PlateRect(textW float64, m font.Metrics) (x, y, w, h float64) {
	ascent := float64(m.Ascent.Ceil())
	descent := float64(m.Descent.Ceil())
	return l.NameAt.X - l.PlatePadX,
		l.NameAt.Y - ascent - l.PlatePadY,
		textW + 2*l.PlatePadX,
		ascent + descent + 2*l.PlatePadY
}

// drawNamePlate draws a rounded plate sized to the name and redraws the name
// on it in a color that reads against the plate.
func (c *Composer) drawNamePlate(dc *gg.Context, face font.Face, card Card, outline palette.Hex) {
	l := c.layout
	name := card.DisplayName()
	dc.SetFontFace(face)
	textW, _ := dc.MeasureString(name)
	x, y, w, h := l.PlateRect(textW, face.Metrics())

	plate := palette.PlateColor(card.Types)
	dc.DrawRoundedRectangle(x, y, w, h, l.PlateRadius)
	dc.SetColor(plate.RGBA())
	dc.FillPreserve()
	dc.SetColor(outline.RGBA())
	dc.SetLineWidth(l.PlateOutline)
	dc.Stroke()

	dc.SetColor(palette.ContrastingText(plate).RGBA())
	dc.DrawString(name, l.NameAt.X, l.NameAt.Y)
}

// drawSprite scales a sprite to width w and draws it over its drop shadow.
// The shadow belongs to this draw only.
func (c *Composer) drawSprite(dc *gg.Context, img image.Image, at Point, w int) {
	sprite := imagepkg.ScaleToWidth(img, w)
	x, y := int(at.X), int(at.Y)

	s := c.layout.SpriteShadow
	if s.Color.A > 0 {
		shadow, pad := imagepkg.DropShadow(sprite, imagepkg.Shadow{Color: s.Color, Sigma: s.Sigma})
		dc.DrawImage(shadow, x+s.OffsetX-pad, y+s.OffsetY-pad)
	}
	dc.DrawImage(sprite, x, y)
}

func limitTypes(types []string) []string {
	return types[:min(len(types), 2)]
}
