package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/quill/internal/core/config"
	"github.com/hay-kot/quill/internal/printer"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Validate configuration file",
				UsageText: "quill config validate [options]",
				Description: `Prints the effective files, history and composer settings and marks
each one that is invalid or worth a second look.

Exits with status 1 if any setting is invalid.`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.flags.Config == nil {
		return fmt.Errorf("configuration not loaded")
	}

	sections := cmd.flags.Config.Report(cmd.flags.ConfigPath)

	var err error
	if cmd.format == "json" {
		err = cmd.outputJSON(c, sections)
	} else {
		cmd.outputText(printer.Ctx(ctx), sections)
	}
	if err != nil {
		return err
	}

	if errs, _ := countIssues(sections); errs > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *ConfigValidateCmd) outputJSON(c *cli.Command, sections []config.Section) error {
	errs, _ := countIssues(sections)

	out := struct {
		Valid    bool             `json:"valid"`
		Sections []config.Section `json:"sections"`
	}{
		Valid:    errs == 0,
		Sections: sections,
	}

	enc := json.NewEncoder(c.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (cmd *ConfigValidateCmd) outputText(p *printer.Printer, sections []config.Section) {
	for _, s := range sections {
		p.Section(s.Name)

		for _, v := range s.Values {
			if issue, ok := s.ErrorFor(v.Key); ok {
				p.FailItem(v.Key, v.Value+" ("+issue.Message+")")
				continue
			}
			if issue, ok := s.WarningFor(v.Key); ok {
				p.WarnItem(v.Key, v.Value+" ("+issue.Message+")")
				continue
			}
			p.CheckItem(v.Key, v.Value)
		}

		// Issues that do not map onto a listed setting.
		for _, is := range s.Errors {
			if !hasSetting(s, is.Key) {
				p.FailItem(issueLabel(is), is.Message)
			}
		}
		for _, is := range s.Warnings {
			if !hasSetting(s, is.Key) {
				p.WarnItem(issueLabel(is), is.Message)
			}
		}

		p.Printf("")
	}

	errs, warns := countIssues(sections)
	switch {
	case errs > 0:
		p.Errorf("%d error(s), %d warning(s)", errs, warns)
	case warns > 0:
		p.Successf("Configuration is valid (%d warning(s))", warns)
	default:
		p.Successf("Configuration is valid")
	}
}

func countIssues(sections []config.Section) (errs, warns int) {
	for _, s := range sections {
		errs += len(s.Errors)
		warns += len(s.Warnings)
	}
	return errs, warns
}

func hasSetting(s config.Section, key string) bool {
	for _, v := range s.Values {
		if v.Key == key {
			return true
		}
	}
	return false
}

func issueLabel(is config.Issue) string {
	if is.Key == "" {
		return "validation"
	}
	return is.Key
}
