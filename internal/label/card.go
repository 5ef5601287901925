package label

import (
	"fmt"
	"strconv"
	"strings"
)

// Fallback texts for fields the data service may leave out.
const (
	UnknownText  = "Unknown"
	NoEntryText  = "No Pokédex entry available."
	UnknownGenus = "Unknown Pokémon"
)

// Card is everything drawn on a label pair.
type Card struct {
	Name        string   `json:"name"`
	ID          int      `json:"id"`
	Types       []string `json:"types"`
	HeightDM    int      `json:"height_dm"`
	WeightHG    int      `json:"weight_hg"`
	FrontSprite string   `json:"front_sprite"`
	BackSprite  string   `json:"back_sprite"`
	Genus       string   `json:"genus"`
	Flavor      string   `json:"flavor"`
	Habitat     string   `json:"habitat"`
	CaptureRate string   `json:"capture_rate"`
	CryURL      string   `json:"cry_url"`
}

// DisplayName is the upper-cased name shown on the front.
func (c Card) DisplayName() string {
	return strings.ToUpper(c.Name)
}

// NumberText is the front's identifier line.
func (c Card) NumberText() string {
	return fmt.Sprintf("Pokédex #: %d", c.ID)
}

// HeightText renders the height in meters.
func (c Card) HeightText() string {
	return "Height: " + tenths(c.HeightDM) + " m"
}

// WeightText renders the weight in kilograms.
func (c Card) WeightText() string {
	return "Weight: " + tenths(c.WeightHG) + " kg"
}

// HabitatText is the back's habitat line, upper-cased.
func (c Card) HabitatText() string {
	return "Habitat: " + strings.ToUpper(orUnknown(c.Habitat))
}

// CatchRateText is the back's catch rate line.
func (c Card) CatchRateText() string {
	return "Catch Rate: " + orUnknown(c.CaptureRate)
}

// FlavorText returns the entry to wrap, or the no-entry notice.
func (c Card) FlavorText() string {
	if strings.TrimSpace(c.Flavor) == "" {
		return NoEntryText
	}
	return c.Flavor
}

// GenusText returns the classification, or its fallback.
func (c Card) GenusText() string {
	if c.Genus == "" {
		return UnknownGenus
	}
	return c.Genus
}

// tenths formats v/10 without trailing zeros: 4 -> "0.4", 60 -> "6".
func tenths(v int) string {
	return strconv.FormatFloat(float64(v)/10, 'f', -1, 64)
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownText
	}
	return s
}
