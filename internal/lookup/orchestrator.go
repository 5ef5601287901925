// Package lookup drives one label render from typed input to attached
// canvases.
//
// Generate validates the input, starts a new output generation, fetches the
// creature and then its species, and hands the resulting card to the
// composer. The front canvas is attached as soon as it is finished; the back
// follows once its QR code and sprite have loaded. A failure part way leaves
// whatever was already attached in place.
//
// Prepare and Render split Generate in two for callers that start renders
// concurrently and need generations to follow input order.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/youruser/dexlabel/internal/dex"
	"github.com/youruser/dexlabel/internal/label"
)

// Dex is the data service the orchestrator reads from.
type Dex interface {
	Creature(ctx context.Context, slug string) (*dex.Creature, error)
	Species(ctx context.Context, url string) (*dex.Species, error)
}

// Options configures an Orchestrator.
type Options struct {
	Dex            Dex
	Composer       *label.Composer
	CryURL         string        // template with {name}; empty uses DefaultCryURL
	RequestTimeout time.Duration // per data-service request; zero means none
	Log            *slog.Logger
}

// Orchestrator renders label pairs. It is safe for concurrent use; overlapping
// renders into the same Stage are resolved by generation.
type Orchestrator struct {
	dex      Dex
	composer *label.Composer
	cryURL   string
	timeout  time.Duration
	log      *slog.Logger
}

// New creates an Orchestrator.
func New(opt Options) *Orchestrator {
	log := opt.Log
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		dex:      opt.Dex,
		composer: opt.Composer,
		cryURL:   opt.CryURL,
		timeout:  opt.RequestTimeout,
		log:      log,
	}
}

// Generate renders the label pair for input into stage and returns the card
// it drew. Errors carry the message to show the user.
func (o *Orchestrator) Generate(ctx context.Context, stage *Stage, input string) (*label.Card, error) {
	q, tok, err := o.Prepare(stage, input)
	if err != nil {
		return nil, err
	}
	return o.Render(ctx, stage, tok, q)
}

// Prepare validates input and starts a new generation in stage. Callers that
// render concurrently call it in arrival order, so the latest input holds
// the newest token no matter which render finishes first. Invalid input
// leaves stage untouched.
func (o *Orchestrator) Prepare(stage *Stage, input string) (Query, Token, error) {
	q, err := ParseQuery(input)
	if err != nil {
		return Query{}, 0, err
	}
	tok, err := stage.Begin()
	if err != nil {
		return Query{}, 0, err
	}
	return q, tok, nil
}

// Render fetches and composes q and attaches the canvases under tok. Once a
// newer generation has begun it returns ErrStale without attaching.
func (o *Orchestrator) Render(ctx context.Context, stage *Stage, tok Token, q Query) (*label.Card, error) {
	started := time.Now()
	log := o.log.With("query", q.Slug, "generation", uint64(tok))

	card, err := o.Fetch(ctx, q)
	if err != nil {
		log.Warn("lookup failed", "error", err)
		return nil, err
	}
	if stage.Current() != tok {
		return nil, o.attachErr(log, label.Front, ErrStale)
	}

	job := o.composer.Begin(ctx, card)
	defer job.Close()

	front, err := job.Front()
	if err != nil {
		log.Warn("front canvas failed", "error", err)
		return nil, err
	}
	if err := stage.Attach(tok, label.Front, front); err != nil {
		return nil, o.attachErr(log, label.Front, err)
	}

	back, err := job.Back()
	if err != nil {
		log.Warn("back canvas failed", "error", err)
		return nil, err
	}
	if err := stage.Attach(tok, label.Back, back); err != nil {
		return nil, o.attachErr(log, label.Back, err)
	}

	log.Info("label generated", "name", card.Name, "id", card.ID, "types", card.Types, "took", time.Since(started))
	return &card, nil
}

// Fetch performs the two dependent requests for q and builds the card.
func (o *Orchestrator) Fetch(ctx context.Context, q Query) (label.Card, error) {
	rctx, cancel := o.requestContext(ctx)
	cr, err := o.dex.Creature(rctx, q.Slug)
	cancel()
	if err != nil {
		return label.Card{}, err
	}

	rctx, cancel = o.requestContext(ctx)
	sp, err := o.dex.Species(rctx, cr.Species.URL)
	cancel()
	if err != nil {
		return label.Card{}, fmt.Errorf("species for %s: %w", cr.Name, err)
	}
	return BuildCard(cr, sp, o.cryURL), nil
}

func (o *Orchestrator) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.timeout)
}

func (o *Orchestrator) attachErr(log *slog.Logger, side label.Side, err error) error {
	if errors.Is(err, ErrStale) {
		log.Debug("dropping stale canvas", "side", side)
		return err
	}
	log.Warn("attach failed", "side", side, "error", err)
	return fmt.Errorf("attach %s: %w", side, err)
}
