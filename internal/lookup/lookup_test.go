package lookup

import (
	"context"
	"image"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/dexlabel/internal/dex"
	"github.com/youruser/dexlabel/internal/dex/dextest"
	imagepkg "github.com/youruser/dexlabel/internal/image"
	"github.com/youruser/dexlabel/internal/label"
	"github.com/youruser/dexlabel/internal/palette"
	"github.com/youruser/dexlabel/internal/util"
)

func newOrchestrator(t *testing.T, d Dex) *Orchestrator {
	t.Helper()
	fonts, err := label.LoadFonts(label.FontPaths{})
	require.NoError(t, err)
	client := util.NewHTTPClient(util.ClientOptions{
		Timeout:      2 * time.Second,
		Retries:      1,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	})
	return New(Options{
		Dex: d,
		Composer: label.NewComposer(label.Options{
			Layout: label.DefaultLayout(),
			Fonts:  fonts,
			Loader: imagepkg.NewLoader(client, 2*time.Second, nil),
		}),
		RequestTimeout: 2 * time.Second,
	})
}

func fakeDex(t *testing.T, entries ...dextest.Entry) (*dextest.Server, *dex.Client) {
	srv := dextest.NewServer(t, entries...)
	client := util.NewHTTPClient(util.ClientOptions{
		Timeout:      2 * time.Second,
		Retries:      1,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	})
	return srv, dex.NewClient(srv.BaseURL(), client)
}

func TestGenerateSingleType(t *testing.T) {
	_, d := fakeDex(t, dextest.Pikachu())
	o := newOrchestrator(t, d)
	sink := &MemorySink{}

	card, err := o.Generate(context.Background(), NewStage(sink), "  Pikachu ")
	require.NoError(t, err)
	assert.Equal(t, "pikachu", card.Name)
	assert.Equal(t, 25, card.ID)
	assert.Equal(t, "https://play.pokemonshowdown.com/audio/cries/pikachu.mp3", card.CryURL)

	items := sink.Items()
	require.Len(t, items, 2)
	assert.Equal(t, label.Front, items[0].Side)
	assert.Equal(t, label.Back, items[1].Side)
	for _, it := range items {
		assert.Equal(t, image.Rect(0, 0, 825, 237), it.Image.Bounds())
	}
	assert.Equal(t, palette.Hex("#F7D02C"), palette.FromColor(items[0].Image.At(2, 118)))
}

func TestGenerateByNumericID(t *testing.T) {
	_, d := fakeDex(t, dextest.Charizard())
	o := newOrchestrator(t, d)
	sink := &MemorySink{}

	card, err := o.Generate(context.Background(), NewStage(sink), "006")
	require.NoError(t, err)
	assert.Equal(t, []string{"fire", "flying"}, card.Types)

	front, ok := sink.Get(label.Front)
	require.True(t, ok)
	fire := palette.TypeColor("fire").RGBA()
	got := palette.FromColor(front.At(0, 118)).RGBA()
	assert.InDelta(t, fire.R, got.R, 3)
	assert.InDelta(t, fire.G, got.G, 3)
	assert.InDelta(t, fire.B, got.B, 3)
}

func TestGenerateEmptyInput(t *testing.T) {
	srv, d := fakeDex(t, dextest.Pikachu())
	o := newOrchestrator(t, d)
	sink := &MemorySink{}
	stage := NewStage(sink)
	prior := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	require.NoError(t, sink.Attach(label.Front, prior))

	_, err := o.Generate(context.Background(), stage, "   ")
	require.ErrorIs(t, err, ErrEmptyQuery)
	assert.Equal(t, "Please enter a Pokémon name or ID.", err.Error())
	assert.Zero(t, srv.CreatureHits.Load())
	assert.Len(t, sink.Items(), 1, "output untouched")
	assert.Zero(t, stage.Current())
}

func TestGenerateNotFound(t *testing.T) {
	srv, d := fakeDex(t)
	o := newOrchestrator(t, d)
	sink := &MemorySink{}
	require.NoError(t, sink.Attach(label.Front, image.NewNRGBA(image.Rect(0, 0, 1, 1))))

	_, err := o.Generate(context.Background(), NewStage(sink), "missingno")
	require.ErrorIs(t, err, dex.ErrNotFound)
	assert.Equal(t, "Pokémon not found", err.Error())
	assert.Empty(t, sink.Items(), "previous output is cleared")
	assert.Zero(t, srv.SpeciesHits.Load())
}

func TestGenerateBackSpriteFails(t *testing.T) {
	e := dextest.Pikachu()
	e.BrokenBack = true
	_, d := fakeDex(t, e)
	o := newOrchestrator(t, d)
	sink := &MemorySink{}

	_, err := o.Generate(context.Background(), NewStage(sink), "pikachu")
	require.ErrorIs(t, err, imagepkg.ErrImageLoad)

	items := sink.Items()
	require.Len(t, items, 1, "front stays attached")
	assert.Equal(t, label.Front, items[0].Side)
}

func TestGenerateWithoutFrontSprite(t *testing.T) {
	e := dextest.Pikachu()
	e.NoFrontSprite = true
	_, d := fakeDex(t, e)
	o := newOrchestrator(t, d)
	sink := &MemorySink{}

	_, err := o.Generate(context.Background(), NewStage(sink), "pikachu")
	require.NoError(t, err)
	assert.Len(t, sink.Items(), 2)
}

// gatedDex holds creature requests until released.
type gatedDex struct {
	Dex
	entered chan struct{}
	release chan struct{}
}

func (g *gatedDex) Creature(ctx context.Context, slug string) (*dex.Creature, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.Dex.Creature(ctx, slug)
}

func TestGenerateStaleRenderDoesNotAttach(t *testing.T) {
	_, d := fakeDex(t, dextest.Pikachu())
	gd := &gatedDex{Dex: d, entered: make(chan struct{}), release: make(chan struct{})}
	o := newOrchestrator(t, gd)
	sink := &MemorySink{}
	stage := NewStage(sink)

	errc := make(chan error, 1)
	go func() {
		_, err := o.Generate(context.Background(), stage, "pikachu")
		errc <- err
	}()
	<-gd.entered

	// A newer render starts while the first is still fetching.
	_, err := stage.Begin()
	require.NoError(t, err)
	close(gd.release)

	require.ErrorIs(t, <-errc, ErrStale)
	assert.Empty(t, sink.Items())
}

func TestPrepareOrdersGenerationsByInput(t *testing.T) {
	_, d := fakeDex(t, dextest.Pikachu(), dextest.Charizard())
	o := newOrchestrator(t, d)
	sink := &MemorySink{}
	stage := NewStage(sink)
	ctx := context.Background()

	older, oldTok, err := o.Prepare(stage, "pikachu")
	require.NoError(t, err)
	newer, newTok, err := o.Prepare(stage, "charizard")
	require.NoError(t, err)
	assert.Greater(t, newTok, oldTok)

	card, err := o.Render(ctx, stage, newTok, newer)
	require.NoError(t, err)
	assert.Equal(t, 6, card.ID)

	_, err = o.Render(ctx, stage, oldTok, older)
	require.ErrorIs(t, err, ErrStale)

	items := sink.Items()
	require.Len(t, items, 2)
	assert.Equal(t, label.Front, items[0].Side)
	assert.Equal(t, label.Back, items[1].Side)
}

func TestPrepareRejectsEmptyInputWithoutBegin(t *testing.T) {
	_, d := fakeDex(t, dextest.Pikachu())
	o := newOrchestrator(t, d)
	stage := NewStage(&MemorySink{})

	_, _, err := o.Prepare(stage, " \t ")
	require.ErrorIs(t, err, ErrEmptyQuery)
	assert.Zero(t, stage.Current())
}

func TestStageTokens(t *testing.T) {
	sink := &MemorySink{}
	stage := NewStage(sink)
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))

	t1, err := stage.Begin()
	require.NoError(t, err)
	require.NoError(t, stage.Attach(t1, label.Front, img))

	t2, err := stage.Begin()
	require.NoError(t, err)
	assert.Greater(t, t2, t1)
	assert.Empty(t, sink.Items())

	assert.ErrorIs(t, stage.Attach(t1, label.Back, img), ErrStale)
	assert.Empty(t, sink.Items())
	require.NoError(t, stage.Attach(t2, label.Back, img))
	assert.Len(t, sink.Items(), 1)
}

func TestDirSink(t *testing.T) {
	dir := t.TempDir()
	sink := DirSink{Dir: dir}
	stage := NewStage(sink)
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))

	tok, err := stage.Begin()
	require.NoError(t, err)
	require.NoError(t, stage.Attach(tok, label.Front, img))
	require.NoError(t, stage.Attach(tok, label.Back, img))
	assert.FileExists(t, sink.Path(label.Front))
	assert.FileExists(t, sink.Path(label.Back))

	decoded, err := imagepkg.DecodeFile(sink.Path(label.Front))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	_, err = stage.Begin()
	require.NoError(t, err)
	_, err = os.Stat(sink.Path(label.Front))
	assert.True(t, os.IsNotExist(err))
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		in   string
		slug string
		id   bool
	}{
		{"Pikachu", "pikachu", false},
		{"  BULBASAUR\t", "bulbasaur", false},
		{"Mr. Mime", "mr-mime", false},
		{"Type: Null", "type-null", false},
		{"tapu   koko", "tapu-koko", false},
		{"Farfetch'd", "farfetchd", false},
		{"25", "25", true},
		{"0025", "25", true},
		{"000", "0", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			q, err := ParseQuery(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.slug, q.Slug)
			assert.Equal(t, tt.id, q.IsID())
			assert.Equal(t, tt.in, q.Input)
		})
	}

	for _, in := range []string{"", "   ", "\n\t", " : "} {
		_, err := ParseQuery(in)
		assert.ErrorIs(t, err, ErrEmptyQuery, "input %q", in)
	}
}

func TestBuildCardFallbacks(t *testing.T) {
	cr := &dex.Creature{
		ID: 132, Name: "Ditto", Height: 3, Weight: 40,
		Types: []dex.TypeSlot{{Slot: 1, Type: dex.NamedRef{Name: "Normal"}}},
	}
	card := BuildCard(cr, &dex.Species{}, "https://cries.example/{name}.ogg")
	assert.Equal(t, []string{"normal"}, card.Types)
	assert.Equal(t, "https://cries.example/ditto.ogg", card.CryURL)
	assert.Equal(t, "Habitat: UNKNOWN", card.HabitatText())
	assert.Equal(t, "Catch Rate: Unknown", card.CatchRateText())
	assert.Equal(t, label.NoEntryText, card.FlavorText())
	assert.Equal(t, label.UnknownGenus, card.GenusText())
	assert.Empty(t, card.FrontSprite)

	rate := 35
	card = BuildCard(cr, &dex.Species{CaptureRate: &rate, Habitat: &dex.NamedRef{Name: "urban"}}, "")
	assert.Equal(t, "Catch Rate: 35", card.CatchRateText())
	assert.Equal(t, "Habitat: URBAN", card.HabitatText())
	assert.Equal(t, "https://play.pokemonshowdown.com/audio/cries/ditto.mp3", card.CryURL)
}
