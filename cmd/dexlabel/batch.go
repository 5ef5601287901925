package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/youruser/dexlabel/internal/app"
	"github.com/youruser/dexlabel/internal/batch"
)

func newBatchCmd(c *cli) *cobra.Command {
	var (
		limit   int
		workers int
	)
	cmd := &cobra.Command{
		Use:   "batch <list.csv>",
		Short: "Render every query in a CSV list",
		Long: `Reads a CSV file with a "query" column and an optional "dir" column and
renders each row into its own subdirectory of the output directory. Repeated
creatures are rendered once. A manifest.txt summarizing the run is written
next to the labels.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := batch.LoadList(args[0])
			if err != nil {
				return err
			}
			kept, skipped := batch.Select(entries, limit)

			orch, err := app.NewOrchestrator(c.cfg, c.log)
			if err != nil {
				return err
			}
			r := &batch.Runner{Gen: orch, OutDir: c.cfg.Output.Dir, Workers: workers, Log: c.log}
			results, err := r.Run(cmd.Context(), kept, skipped)
			if err != nil {
				return err
			}

			failed := 0
			for _, res := range results {
				if res.Err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %s: %v\n", res.Entry.Query, res.Err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rendered, %d failed, %d skipped; see %s\n",
				len(results)-failed, failed, len(skipped), filepath.Join(c.cfg.Output.Dir, batch.ManifestFile))
			if failed > 0 {
				return fmt.Errorf("%d of %d renders failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "render at most this many rows (0 for all)")
	cmd.Flags().IntVar(&workers, "workers", 4, "renders in flight at once")
	return cmd
}
