// Package dex fetches creature and species records from a PokeAPI-compatible
// data service.
//
// A lookup is two dependent requests: the creature record by slug, then the
// species record at the URL the creature record carries. Both go through a
// shared retryablehttp client, so transient 5xx responses and connection
// errors are retried; a 404 on the creature request becomes [ErrNotFound].
package dex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/youruser/dexlabel/internal/textwrap"
	"github.com/youruser/dexlabel/internal/util"
)

// DefaultBaseURL is the public PokeAPI v2 endpoint.
const DefaultBaseURL = "https://pokeapi.co/api/v2"

const maxRecordBytes = 4 << 20

// ErrNotFound is returned when the service has no creature for a slug.
var ErrNotFound = errors.New("Pokémon not found")

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// NamedRef is the service's {name, url} pair.
type NamedRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Creature is the subset of the creature record a label needs.
type Creature struct {
	ID      int        `json:"id"`
	Name    string     `json:"name"`
	Height  int        `json:"height"` // decimeters
	Weight  int        `json:"weight"` // hectograms
	Sprites Sprites    `json:"sprites"`
	Types   []TypeSlot `json:"types"`
	Species NamedRef   `json:"species"`
}

// Sprites holds the sprite URLs. Either may be empty.
type Sprites struct {
	FrontDefault string `json:"front_default"`
	BackDefault  string `json:"back_default"`
}

// TypeSlot is one entry of a creature's ordered type list.
type TypeSlot struct {
	Slot int      `json:"slot"`
	Type NamedRef `json:"type"`
}

// TypeNames returns the lower-cased type names in slot order.
func (c *Creature) TypeNames() []string {
	out := make([]string, 0, len(c.Types))
	for _, t := range c.Types {
		out = append(out, strings.ToLower(t.Type.Name))
	}
	return out
}

// Species is the subset of the species record a label needs.
type Species struct {
	FlavorTextEntries []FlavorText `json:"flavor_text_entries"`
	Genera            []Genus      `json:"genera"`
	Habitat           *NamedRef    `json:"habitat"`
	CaptureRate       *int         `json:"capture_rate"`
}

// FlavorText is one localized description.
type FlavorText struct {
	FlavorText string   `json:"flavor_text"`
	Language   NamedRef `json:"language"`
	Version    NamedRef `json:"version"`
}

// Genus is one localized classification.
type Genus struct {
	Genus    string   `json:"genus"`
	Language NamedRef `json:"language"`
}

// Flavor returns the first entry in lang with line and form feeds replaced
// by spaces, or "" when there is none.
func (s *Species) Flavor(lang string) string {
	for _, e := range s.FlavorTextEntries {
		if e.Language.Name == lang {
			return textwrap.Normalize(e.FlavorText)
		}
	}
	return ""
}

// GenusIn returns the first classification in lang, or "".
func (s *Species) GenusIn(lang string) string {
	for _, g := range s.Genera {
		if g.Language.Name == lang {
			return g.Genus
		}
	}
	return ""
}

// HabitatName returns the habitat name, or "" when the service reports none.
func (s *Species) HabitatName() string {
	if s.Habitat == nil {
		return ""
	}
	return s.Habitat.Name
}

// ///////////////////////////////////////////////
// Client
// ///////////////////////////////////////////////

// Client talks to the data service.
type Client struct {
	base string
	http *retryablehttp.Client
}

// NewClient creates a Client for base, e.g. [DefaultBaseURL].
func NewClient(base string, client *retryablehttp.Client) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{base: strings.TrimRight(base, "/"), http: client}
}

// Creature fetches the creature record for slug. The slug is one escaped path
// segment, so "/", "?" and "#" in it never reach the URL's structure.
func (c *Client) Creature(ctx context.Context, slug string) (*Creature, error) {
	var cr Creature
	err := c.getJSON(ctx, c.base+"/pokemon/"+url.PathEscape(slug), &cr)
	var se *util.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if cr.Species.URL == "" {
		return nil, fmt.Errorf("creature %q: record has no species url", slug)
	}
	return &cr, nil
}

// Species fetches the species record at rawURL, as found in Creature.Species.
func (c *Client) Species(ctx context.Context, rawURL string) (*Species, error) {
	var sp Species
	if err := c.getJSON(ctx, rawURL, &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	body, err := util.GetBytes(ctx, c.http, rawURL, maxRecordBytes)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing %s: %w", rawURL, err)
	}
	return nil
}
