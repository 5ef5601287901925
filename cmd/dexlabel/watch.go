package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/youruser/dexlabel/internal/app"
	"github.com/youruser/dexlabel/internal/lookup"
)

func newWatchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Render each query typed on stdin",
		Long: `Reads one query per line and renders it into the output directory without
waiting for the previous render. Only the newest query may write: a slower,
older render that finishes later is dropped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := app.NewOrchestrator(c.cfg, c.log)
			if err != nil {
				return err
			}
			stage := lookup.NewStage(lookup.DirSink{Dir: c.cfg.Output.Dir})
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

			var (
				wg sync.WaitGroup
				mu sync.Mutex // serializes writes to out and errOut
			)
			report := func(w io.Writer, format string, a ...any) {
				mu.Lock()
				defer mu.Unlock()
				fmt.Fprintf(w, format, a...)
			}
			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				line := strings.TrimSpace(sc.Text())
				if line == "" {
					continue
				}
				// The generation is taken here, in input order; only the
				// render runs in the background.
				q, tok, err := orch.Prepare(stage, line)
				if err != nil {
					report(errOut, "error: %v\n", err)
					continue
				}
				wg.Add(1)
				go func() {
					defer wg.Done()
					card, err := orch.Render(cmd.Context(), stage, tok, q)
					switch {
					case errors.Is(err, lookup.ErrStale):
					case err != nil:
						report(errOut, "error: %v\n", err)
					default:
						report(out, "#%d %s\n", card.ID, card.DisplayName())
					}
				}()
			}
			wg.Wait()
			return sc.Err()
		},
	}
}
