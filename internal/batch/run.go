package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/youruser/dexlabel/internal/label"
	"github.com/youruser/dexlabel/internal/lookup"
	"github.com/youruser/dexlabel/internal/util"
)

// ManifestFile is written to the output directory after a run.
const ManifestFile = "manifest.txt"

// Generator renders one label pair into a stage.
type Generator interface {
	Generate(ctx context.Context, stage *lookup.Stage, input string) (*label.Card, error)
}

// Result is the outcome of one entry.
type Result struct {
	Entry Entry
	Card  *label.Card
	Err   error
}

// Runner renders entries into per-entry directories under OutDir.
type Runner struct {
	Gen     Generator
	OutDir  string
	Workers int
	Log     *slog.Logger
}

// Run renders every entry, at most Workers at a time, and writes the
// manifest. Per-entry failures are recorded in the results; the returned
// error is only for ctx cancellation or a failed manifest write.
func (r *Runner) Run(ctx context.Context, entries []Entry, skipped []Skip) ([]Result, error) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}
	started := time.Now()

	results := make([]Result, len(entries))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(r.Workers, 1))
	for i, e := range entries {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				results[i] = Result{Entry: e, Err: err}
				return nil
			}
			stage := lookup.NewStage(lookup.DirSink{Dir: filepath.Join(r.OutDir, e.Dir)})
			card, err := r.Gen.Generate(egCtx, stage, e.Query)
			results[i] = Result{Entry: e, Card: card, Err: err}
			if err != nil {
				log.Warn("batch entry failed", "line", e.Line, "query", e.Query, "error", err)
			}
			return nil
		})
	}
	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		return results, err
	}

	if err := util.WriteFileAtomic(filepath.Join(r.OutDir, ManifestFile), []byte(Manifest(results, skipped)), 0o644); err != nil {
		return results, fmt.Errorf("writing manifest: %w", err)
	}
	log.Info("batch finished", "entries", len(entries), "failed", countFailed(results), "skipped", len(skipped), "took", time.Since(started))
	return results, nil
}

// Manifest lists results sorted by directory, then skipped rows by line.
func Manifest(results []Result, skipped []Skip) string {
	sorted := append([]Result(nil), results...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Entry.Dir < sorted[j].Entry.Dir })
	skips := append([]Skip(nil), skipped...)
	sort.SliceStable(skips, func(i, j int) bool { return skips[i].Entry.Line < skips[j].Entry.Line })

	lines := []string{
		fmt.Sprintf("# dexlabel batch: %d ok, %d failed, %d skipped",
			len(results)-countFailed(results), countFailed(results), len(skips)),
	}
	for _, res := range sorted {
		if res.Err != nil {
			lines = append(lines, fmt.Sprintf("fail\t%s\t%s", res.Entry.Dir, oneLine(res.Err.Error())))
			continue
		}
		lines = append(lines, fmt.Sprintf("ok\t%s\t#%d %s", res.Entry.Dir, res.Card.ID, res.Card.Name))
	}
	for _, s := range skips {
		lines = append(lines, fmt.Sprintf("skip\tline %d\t%s", s.Entry.Line, s.Reason))
	}
	return strings.Join(lines, "\n") + "\n"
}

func countFailed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
