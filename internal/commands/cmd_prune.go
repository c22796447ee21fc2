package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/quill/internal/printer"
)

type PruneCmd struct {
	flags *Flags

	max int
}

// NewPruneCmd creates a new prune command
func NewPruneCmd(flags *Flags) *PruneCmd {
	return &PruneCmd{flags: flags}
}

// Register adds the prune command to the application
func (cmd *PruneCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "prune",
		Usage:     "Remove history entries beyond the retention limit",
		UsageText: "quill prune [--max N]",
		Description: `Deletes the oldest history entries so that at most N remain.

By default N is the history.retention_max configuration value. The composer
prunes in the background after every entry; this command is for trimming
after lowering the limit.`,
		Action: cmd.run,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "max",
				Aliases:     []string{"m"},
				Usage:       "number of entries to keep (default: history.retention_max)",
				Destination: &cmd.max,
			},
		},
	})

	return app
}

func (cmd *PruneCmd) run(ctx context.Context, _ *cli.Command) error {
	p := printer.Ctx(ctx)

	keep := cmd.max
	if keep <= 0 {
		keep = cmd.flags.Config.History.RetentionMax
	}

	count, err := cmd.flags.Store.PruneOld(ctx, keep)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}

	if count == 0 {
		p.Infof("History is within the limit of %d", keep)
		return nil
	}

	cmd.flags.Repository.InvalidateCache()
	p.Successf("Pruned %d entr%s", count, plural(count, "y", "ies"))

	return nil
}
