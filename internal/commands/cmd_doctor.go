package commands

import (
	"context"
	"encoding/json"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/quill/internal/commands/doctor"
	"github.com/hay-kot/quill/internal/core/config"
	"github.com/hay-kot/quill/internal/printer"
)

type DoctorCmd struct {
	flags  *Flags
	format string
	fix    bool
}

func NewDoctorCmd(flags *Flags) *DoctorCmd {
	return &DoctorCmd{flags: flags}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "doctor",
		Usage:       "Run health checks on your quill setup",
		UsageText:   "quill doctor [options]",
		Description: "Runs diagnostic checks on configuration and the history store.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "fix",
				Usage:       "prune history entries beyond retention_max",
				Destination: &cmd.fix,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	report := doctor.Run(ctx,
		doctor.NewConfigCheck(cmd.flags.Config, cmd.flags.ConfigPath),
		doctor.NewHistoryCheck(
			cmd.flags.Store,
			cmd.flags.Connector,
			cmd.flags.Config.History.RetentionMax,
			cmd.persistent(),
			cmd.fix,
		),
	)
	if cmd.fix {
		cmd.flags.Repository.InvalidateCache()
	}

	var err error
	if cmd.format == "json" {
		err = cmd.outputJSON(c, report)
	} else {
		cmd.outputText(printer.Ctx(ctx), report)
	}
	if err != nil {
		return err
	}

	if !report.Healthy() {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *DoctorCmd) outputJSON(c *cli.Command, report doctor.Report) error {
	out := struct {
		Healthy bool `json:"healthy"`
		doctor.Report
	}{
		Healthy: report.Healthy(),
		Report:  report,
	}

	enc := json.NewEncoder(c.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (cmd *DoctorCmd) outputText(p *printer.Printer, report doctor.Report) {
	for _, result := range report.Results {
		p.Section(result.Name)

		for _, f := range result.Facts {
			p.Printf("  %s", printer.Dim(f.Key+": "+f.Value))
		}

		for _, item := range result.Items {
			switch item.Status {
			case doctor.StatusPass:
				p.CheckItem(item.Label, item.Detail)
			case doctor.StatusWarn:
				p.WarnItem(item.Label, item.Detail)
			case doctor.StatusFail:
				p.FailItem(item.Label, item.Detail)
			}
		}

		p.Printf("")
	}

	if report.Fixable > 0 && !cmd.fix {
		p.Infof("%d issue(s) can be fixed with 'quill doctor --fix'", report.Fixable)
	}
	p.Printf("Summary: %d passed, %d warnings, %d failed", report.Passed, report.Warned, report.Failed)
}

func (cmd *DoctorCmd) persistent() bool {
	return !cmd.flags.Memory && cmd.flags.Config.History.Backend != config.BackendMemory
}
