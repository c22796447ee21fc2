package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/quill/internal/printer"
)

// maxContentWidth caps the INPUT column, in terminal cells.
const maxContentWidth = 60

type HistoryCmd struct {
	flags *Flags

	// Command-specific flags
	limit  int
	clear  bool
	yes    bool
	asJSON bool

	// confirm asks before destructive actions; replaced in tests
	confirm func(title string) (bool, error)
}

// NewHistoryCmd creates a new history command
func NewHistoryCmd(flags *Flags) *HistoryCmd {
	return &HistoryCmd{flags: flags, confirm: confirmPrompt}
}

// Register adds the history command to the application
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Usage:     "View or manage input history",
		UsageText: "quill history [options]",
		Description: `Lists recorded inputs, newest first.

Use --clear to remove every entry. You will be asked to confirm unless
--yes is given.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "maximum number of entries to show",
				Value:       20,
				Destination: &cmd.limit,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output entries as JSON",
				Destination: &cmd.asJSON,
			},
			&cli.BoolFlag{
				Name:        "clear",
				Aliases:     []string{"c"},
				Usage:       "clear all input history",
				Destination: &cmd.clear,
			},
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "skip the confirmation prompt",
				Destination: &cmd.yes,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if cmd.clear {
		return cmd.runClear(ctx, p)
	}

	return cmd.runList(ctx, c)
}

func (cmd *HistoryCmd) runList(ctx context.Context, c *cli.Command) error {
	records, err := cmd.flags.Store.GetRecent(ctx, cmd.limit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	out := c.Root().Writer

	if cmd.asJSON {
		type entry struct {
			ID        int64  `json:"id,omitempty"`
			Content   string `json:"content"`
			CreatedAt int64  `json:"created_at"`
		}

		entries := make([]entry, 0, len(records))
		for _, r := range records {
			entries = append(entries, entry{ID: r.ID, Content: r.Content, CreatedAt: r.CreatedAt})
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(records) == 0 {
		printer.Ctx(ctx).Infof("No input history")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WHEN\tINPUT")

	for _, r := range records {
		content := ansi.Truncate(strings.ReplaceAll(r.Content, "\n", "⏎"), maxContentWidth, "...")

		_, _ = fmt.Fprintf(w, "%s\t%s\n", printer.Dim(humanize.Time(r.Time())), content)
	}

	return w.Flush()
}

func (cmd *HistoryCmd) runClear(ctx context.Context, p *printer.Printer) error {
	if !cmd.yes {
		ok, err := cmd.confirm("Clear all input history?")
		if err != nil {
			return fmt.Errorf("confirm clear: %w", err)
		}
		if !ok {
			p.Infof("Aborted")
			return nil
		}
	}

	if err := cmd.flags.Store.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	cmd.flags.Repository.InvalidateCache()

	p.Successf("Input history cleared")
	return nil
}

func confirmPrompt(title string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("stdin is not a terminal; pass --yes to skip confirmation")
	}

	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).Run()
	if err != nil {
		return false, err
	}

	return ok, nil
}
