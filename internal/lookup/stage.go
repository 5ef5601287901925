package lookup

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/youruser/dexlabel/internal/label"
	"github.com/youruser/dexlabel/internal/util"
)

// ErrStale is returned when a render tries to attach output after a newer
// render has begun. The output is not touched.
var ErrStale = errors.New("render superseded by a newer request")

// Sink receives finished canvases.
type Sink interface {
	// Clear drops whatever a previous render attached.
	Clear() error
	// Attach adds one finished canvas.
	Attach(side label.Side, img image.Image) error
}

// Token identifies one render's generation.
type Token uint64

// Stage owns a Sink and the generation counter guarding it. Every render
// takes a Token from Begin; only the latest token may attach.
type Stage struct {
	mu   sync.Mutex
	gen  Token
	sink Sink
}

// NewStage wraps sink.
func NewStage(sink Sink) *Stage {
	return &Stage{sink: sink}
}

// Begin starts a new generation and clears the sink. Any earlier token
// becomes stale.
func (s *Stage) Begin() (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if err := s.sink.Clear(); err != nil {
		return s.gen, fmt.Errorf("clearing output: %w", err)
	}
	return s.gen, nil
}

// Attach hands img to the sink if tok is still current.
func (s *Stage) Attach(tok Token, side label.Side, img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok != s.gen {
		return ErrStale
	}
	return s.sink.Attach(side, img)
}

// Current returns the latest generation.
func (s *Stage) Current() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// ///////////////////////////////////////////////
// Sinks
// ///////////////////////////////////////////////

// Attached is one canvas in a MemorySink.
type Attached struct {
	Side  label.Side
	Image image.Image
}

// MemorySink keeps canvases in attach order.
type MemorySink struct {
	mu    sync.Mutex
	items []Attached
}

func (m *MemorySink) Clear() error {
	m.mu.Lock()
	m.items = nil
	m.mu.Unlock()
	return nil
}

func (m *MemorySink) Attach(side label.Side, img image.Image) error {
	m.mu.Lock()
	m.items = append(m.items, Attached{Side: side, Image: img})
	m.mu.Unlock()
	return nil
}

// Items returns a copy of the attached canvases.
func (m *MemorySink) Items() []Attached {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Attached(nil), m.items...)
}

// Get returns the canvas for side, if attached.
func (m *MemorySink) Get(side label.Side) (image.Image, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.Side == side {
			return it.Image, true
		}
	}
	return nil, false
}

// DirSink writes each canvas to "<Dir>/<side>.png".
type DirSink struct {
	Dir string
}

// Path returns the file a side is written to.
func (d DirSink) Path(side label.Side) string {
	return filepath.Join(d.Dir, string(side)+".png")
}

func (d DirSink) Clear() error {
	for _, side := range []label.Side{label.Front, label.Back} {
		if err := util.RemoveIfExists(d.Path(side)); err != nil {
			return err
		}
	}
	return nil
}

func (d DirSink) Attach(side label.Side, img image.Image) error {
	data, err := EncodePNG(img)
	if err != nil {
		return err
	}
	return util.WriteFileAtomic(d.Path(side), data, 0o644)
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
