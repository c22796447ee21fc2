package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/quill/internal/core/config"
	"github.com/hay-kot/quill/internal/core/history"
	"github.com/hay-kot/quill/internal/tui"
)

type TuiCmd struct {
	flags *Flags

	placeholder string
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags) *TuiCmd {
	return &TuiCmd{
		flags: flags,
	}
}

// Flags returns the TUI-specific flags for registration on the root command
func (cmd *TuiCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "placeholder",
			Usage:       "composer placeholder text (overrides composer.placeholder)",
			Sources:     cli.EnvVars("QUILL_PLACEHOLDER"),
			Destination: &cmd.placeholder,
		},
	}
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *TuiCmd) run(ctx context.Context, _ *cli.Command) error {
	logger := log.With().Str("component", "composer").Logger()

	nav := history.NewNavigator(cmd.flags.Repository, logger)
	m := tui.New(ctx, nav, cmd.composerConfig(), logger)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("run tui: %w", err)
	}

	if fm, ok := final.(tui.Model); ok {
		logger.Debug().Int("sent", len(fm.Sent())).Msg("composer closed")
	}

	return nil
}

func (cmd *TuiCmd) composerConfig() config.ComposerConfig {
	cfg := cmd.flags.Config.Composer
	if cmd.placeholder != "" {
		cfg.Placeholder = cmd.placeholder
	}
	return cfg
}
