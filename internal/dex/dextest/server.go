// Package dextest serves a small fake data service for tests.
package dextest

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// Entry is one creature the fake service knows.
type Entry struct {
	ID          int
	Name        string
	Types       []string
	Height      int
	Weight      int
	Flavor      string // English; "" omits the English entry
	Genus       string // English; "" omits the English genus
	Habitat     string // "" reports a null habitat
	CaptureRate *int

	NoFrontSprite bool // front_default is null
	BrokenBack    bool // back sprite URL answers 404
}

// Pikachu is a single-type entry.
func Pikachu() Entry {
	rate := 190
	return Entry{
		ID:          25,
		Name:        "pikachu",
		Types:       []string{"electric"},
		Height:      4,
		Weight:      60,
		Flavor:      "When several of\nthese POKéMON gather, their\felectricity could build and cause lightning storms.",
		Genus:       "Mouse Pokémon",
		Habitat:     "forest",
		CaptureRate: &rate,
	}
}

// Charizard is a dual-type entry.
func Charizard() Entry {
	rate := 45
	return Entry{
		ID:          6,
		Name:        "charizard",
		Types:       []string{"fire", "flying"},
		Height:      17,
		Weight:      905,
		Flavor:      "It spits fire that is hot enough to melt boulders.",
		Genus:       "Flame Pokémon",
		Habitat:     "mountain",
		CaptureRate: &rate,
	}
}

// Server is a running fake service.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	entries map[string]Entry
	fail    int

	CreatureHits atomic.Int32
	SpeciesHits  atomic.Int32
	SpriteHits   atomic.Int32
}

// NewServer starts a fake service holding entries. It is closed when the test
// ends.
func NewServer(t testing.TB, entries ...Entry) *Server {
	t.Helper()
	s := &Server{entries: map[string]Entry{}}
	for _, e := range entries {
		s.Add(e)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v2/pokemon/{slug}", s.creature)
	mux.HandleFunc("GET /api/v2/pokemon-species/{id}/", s.species)
	mux.HandleFunc("GET /sprites/{id}/{side}", s.sprite)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to hand to dex.NewClient.
func (s *Server) BaseURL() string {
	return s.URL + "/api/v2"
}

// Add registers an entry under its name and id.
func (s *Server) Add(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Name] = e
	s.entries[strconv.Itoa(e.ID)] = e
}

// FailNext makes the next n creature requests answer 502.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	s.fail = n
	s.mu.Unlock()
}

func (s *Server) lookup(key string) (Entry, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail > 0 {
		s.fail--
		return Entry{}, false, true
	}
	e, ok := s.entries[key]
	return e, ok, false
}

func (s *Server) creature(w http.ResponseWriter, r *http.Request) {
	s.CreatureHits.Add(1)
	e, ok, fail := s.lookup(r.PathValue("slug"))
	if fail {
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	types := make([]map[string]any, len(e.Types))
	for i, t := range e.Types {
		types[i] = map[string]any{"slot": i + 1, "type": map[string]string{"name": t, "url": s.URL + "/api/v2/type/" + t}}
	}
	sprites := map[string]any{
		"front_default": s.spriteURL(e, "front"),
		"back_default":  s.spriteURL(e, "back"),
	}
	if e.NoFrontSprite {
		sprites["front_default"] = nil
	}
	writeJSON(w, map[string]any{
		"id":      e.ID,
		"name":    e.Name,
		"height":  e.Height,
		"weight":  e.Weight,
		"sprites": sprites,
		"types":   types,
		"species": map[string]string{"name": e.Name, "url": s.URL + "/api/v2/pokemon-species/" + strconv.Itoa(e.ID) + "/"},
	})
}

func (s *Server) species(w http.ResponseWriter, r *http.Request) {
	s.SpeciesHits.Add(1)
	e, ok := s.entry(r.PathValue("id"))
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	lang := func(n string) map[string]string { return map[string]string{"name": n} }
	flavors := []map[string]any{
		{"flavor_text": "Il lui arrive de remettre d'aplomb.", "language": lang("fr")},
	}
	if e.Flavor != "" {
		flavors = append(flavors, map[string]any{"flavor_text": e.Flavor, "language": lang("en")})
	}
	genera := []map[string]any{{"genus": "Maus-Pokémon", "language": lang("de")}}
	if e.Genus != "" {
		genera = append(genera, map[string]any{"genus": e.Genus, "language": lang("en")})
	}
	var habitat any
	if e.Habitat != "" {
		habitat = map[string]string{"name": e.Habitat}
	}
	var rate any
	if e.CaptureRate != nil {
		rate = *e.CaptureRate
	}
	writeJSON(w, map[string]any{
		"flavor_text_entries": flavors,
		"genera":              genera,
		"habitat":             habitat,
		"capture_rate":        rate,
	})
}

func (s *Server) entry(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok
}

func (s *Server) sprite(w http.ResponseWriter, r *http.Request) {
	s.SpriteHits.Add(1)
	e, ok := s.entry(r.PathValue("id"))
	side := strings.TrimSuffix(r.PathValue("side"), ".png")
	if !ok || (side == "back" && e.BrokenBack) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(SpritePNG(color.NRGBA{R: 255, A: 255}))
}

func (s *Server) spriteURL(e Entry, side string) string {
	return s.URL + "/sprites/" + strconv.Itoa(e.ID) + "/" + side + ".png"
}

// SpritePNG encodes a 96×96 square of c.
func SpritePNG(c color.NRGBA) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 96, 96))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
