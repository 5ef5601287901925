package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/youruser/dexlabel/internal/app"
	"github.com/youruser/dexlabel/internal/label"
	"github.com/youruser/dexlabel/internal/lookup"
)

func newRenderCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "render <name-or-id>...",
		Short: "Render label pairs into the output directory",
		Long: `Renders front.png and back.png for each query. With one query the files go
straight into the output directory; with several, each gets a subdirectory
named after its slug.`,
		Example: `  dexlabel render pikachu
  dexlabel render "Mr. Mime" 25 -o shelf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := app.NewOrchestrator(c.cfg, c.log)
			if err != nil {
				return err
			}

			failed := 0
			for _, arg := range args {
				dir := c.cfg.Output.Dir
				if len(args) > 1 {
					q, err := lookup.ParseQuery(arg)
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
						failed++
						continue
					}
					dir = filepath.Join(dir, q.Slug)
				}

				sink := lookup.DirSink{Dir: dir}
				card, err := orch.Generate(cmd.Context(), lookup.NewStage(sink), arg)
				if err != nil {
					if len(args) == 1 {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "#%d %s -> %s, %s\n",
					card.ID, card.DisplayName(), sink.Path(label.Front), sink.Path(label.Back))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d renders failed", failed, len(args))
			}
			return nil
		},
	}
}
