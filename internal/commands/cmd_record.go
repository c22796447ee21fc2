package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/quill/internal/printer"
)

type RecordCmd struct {
	flags *Flags

	// stdin is read when no arguments are given; replaced in tests
	stdin io.Reader
}

// NewRecordCmd creates a new record command
func NewRecordCmd(flags *Flags) *RecordCmd {
	return &RecordCmd{flags: flags, stdin: os.Stdin}
}

// Register adds the record command to the application
func (cmd *RecordCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "record",
		Usage:     "Append entries to input history",
		UsageText: "quill record [text...]",
		Description: `Records the given text as a single history entry.

With no arguments, reads piped stdin and records each non-blank line as its
own entry. Retention limits apply as they do in the composer.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *RecordCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	var entries []string
	if c.Args().Len() > 0 {
		entries = []string{strings.Join(c.Args().Slice(), " ")}
	} else {
		lines, err := cmd.readLines()
		if err != nil {
			return err
		}
		entries = lines
	}

	recorded := 0
	for _, entry := range entries {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		if err := cmd.flags.Repository.Record(ctx, entry); err != nil {
			return fmt.Errorf("record history: %w", err)
		}
		recorded++
	}

	if recorded == 0 {
		p.Infof("Nothing to record")
		return nil
	}

	p.Successf("Recorded %d entr%s", recorded, plural(recorded, "y", "ies"))
	return nil
}

func (cmd *RecordCmd) readLines() ([]string, error) {
	if f, ok := cmd.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return nil, fmt.Errorf("no input provided (stdin is a terminal); pass text as arguments or pipe it in")
	}

	var lines []string
	scanner := bufio.NewScanner(cmd.stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}

	return lines, nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
