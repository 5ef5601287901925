package lookup

import (
	"strconv"
	"strings"

	"github.com/youruser/dexlabel/internal/dex"
	"github.com/youruser/dexlabel/internal/label"
)

// DefaultCryURL is the cry audio location; {name} is the lower-cased name.
const DefaultCryURL = "https://play.pokemonshowdown.com/audio/cries/{name}.mp3"

// Language selects the flavor text and genus entries.
const Language = "en"

// BuildCard flattens the two records into what the composer draws.
func BuildCard(cr *dex.Creature, sp *dex.Species, cryURL string) label.Card {
	if cryURL == "" {
		cryURL = DefaultCryURL
	}
	card := label.Card{
		Name:        cr.Name,
		ID:          cr.ID,
		Types:       cr.TypeNames(),
		HeightDM:    cr.Height,
		WeightHG:    cr.Weight,
		FrontSprite: cr.Sprites.FrontDefault,
		BackSprite:  cr.Sprites.BackDefault,
		CryURL:      strings.ReplaceAll(cryURL, "{name}", strings.ToLower(cr.Name)),
	}
	if sp != nil {
		card.Genus = sp.GenusIn(Language)
		card.Flavor = sp.Flavor(Language)
		card.Habitat = sp.HabitatName()
		if sp.CaptureRate != nil {
			card.CaptureRate = strconv.Itoa(*sp.CaptureRate)
		}
	}
	return card
}
