package imagepkg

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrImageLoad is matched by every asset failure reported from a Pending.
var ErrImageLoad = errors.New("image load failed")

// LoadError records which named asset failed and, for fetched assets, the
// URL or path it was read from.
type LoadError struct {
	Key string
	Ref string
	Err error
}

func (e *LoadError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("load %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("load %s from %s: %v", e.Key, e.Ref, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrImageLoad }

// Group names the sources a canvas depends on.
type Group map[string]Source

// Keys returns the group's names in sorted order.
func (g Group) Keys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Assets holds the decoded images of a finished group.
type Assets map[string]image.Image

// Pending is a group of loads in flight.
type Pending struct {
	done   chan struct{}
	assets Assets
	err    error
	took   time.Duration
}

// Start runs every source of g concurrently and returns immediately. The
// first failure cancels the remaining sources.
func (l *Loader) Start(ctx context.Context, g Group) *Pending {
	p := &Pending{done: make(chan struct{}), assets: make(Assets, len(g))}
	keys := g.Keys()
	started := time.Now()

	go func() {
		defer close(p.done)

		eg, egCtx := errgroup.WithContext(ctx)
		var mu sync.Mutex
		for _, key := range keys {
			src := g[key]
			eg.Go(func() error {
				lctx, cancel := l.assetContext(egCtx)
				defer cancel()
				img, err := src(lctx)
				if err == nil && img == nil {
					err = errors.New("source returned no image")
				}
				if err != nil {
					le, ok := err.(*LoadError)
					if !ok {
						le = &LoadError{Err: err}
					}
					le.Key = key
					return le
				}
				mu.Lock()
				p.assets[key] = img
				mu.Unlock()
				return nil
			})
		}
		p.err = eg.Wait()
		p.took = time.Since(started)
		if p.err != nil {
			p.assets = nil
			l.log.Warn("asset group failed", "keys", keys, "error", p.err)
			return
		}
		l.log.Debug("asset group loaded", "keys", keys, "took", p.took)
	}()
	return p
}

func (l *Loader) assetContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, l.timeout)
}

// Wait blocks until every source in the group has loaded or one has failed.
// It returns early with ctx's error if ctx ends first.
func (p *Pending) Wait(ctx context.Context) (Assets, error) {
	select {
	case <-p.done:
		return p.assets, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed once the group has settled.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}
