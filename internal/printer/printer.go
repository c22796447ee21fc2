// Package printer writes styled, human-facing command output.
package printer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hay-kot/criterio"
)

// ANSI color codes (Tokyo Night palette)
const (
	ColorReset     = "\033[0m"
	ColorRed       = "\033[38;2;215;95;107m"  // #d75f6b
	ColorGreen     = "\033[38;2;158;206;106m" // #9ece6a
	ColorYellow    = "\033[38;2;224;175;104m" // #e0af68
	ColorGray      = "\033[38;2;86;95;137m"   // #565f89
	ColorBold      = "\033[1m"
	ColorUnderline = "\033[4m"
)

// Symbols
const (
	Check = "✔"
	Cross = "✘"
	Dot   = "•"
)

type ctxKey struct{}

// Printer handles formatted output with colors and styles
type Printer struct {
	writer io.Writer
}

// New creates a new Printer that writes to the given writer
func New(w io.Writer) *Printer {
	return &Printer{writer: w}
}

// NewContext returns a context with the printer attached
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx retrieves the printer from context, or creates a default one
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stderr)
}

// FatalError prints err in an error box. It does not exit.
func (p *Printer) FatalError(err error) {
	if err == nil {
		return
	}

	var fieldErrs criterio.FieldErrors
	if errors.As(err, &fieldErrs) {
		p.box("Validation Error", validationLines(err, fieldErrs))
		return
	}

	p.box("Error", []string{p.colorize(ColorGray, err.Error())})
}

// validationLines renders one line per field error, preceded by whatever
// context the wrapping error added (e.g. "load config: invalid config").
func validationLines(wrapped error, fieldErrs criterio.FieldErrors) []string {
	var lines []string

	errStr, fieldStr := wrapped.Error(), fieldErrs.Error()
	if idx := strings.Index(errStr, fieldStr); idx > 0 {
		lines = append(lines, ColorGray+strings.TrimSuffix(errStr[:idx], ": ")+ColorReset, "")
	}

	for _, fe := range fieldErrs {
		line := ColorRed + Cross + ColorReset + " "
		if fe.Field != "" {
			line += ColorGray + fe.Field + ": " + ColorReset
		}
		lines = append(lines, line+fe.Err.Error())
	}

	return lines
}

func (p *Printer) box(title string, lines []string) {
	var b strings.Builder
	b.WriteString(p.colorize(ColorRed, "╭ "+title) + "\n")
	for _, l := range lines {
		b.WriteString(p.colorize(ColorRed, "│"))
		if l != "" {
			b.WriteString(" " + l)
		}
		b.WriteString("\n")
	}
	b.WriteString(p.colorize(ColorRed, "╵") + "\n")
	_, _ = io.WriteString(p.writer, b.String())
}

// Section prints a bold, underlined section header
func (p *Printer) Section(title string) {
	_, _ = io.WriteString(p.writer, ColorBold+ColorUnderline+title+ColorReset+"\n")
}

// CheckItem prints a success item with green checkmark
func (p *Printer) CheckItem(label, detail string) {
	p.printItem(ColorGreen, Check, label, detail)
}

// WarnItem prints a warning item with yellow dot
func (p *Printer) WarnItem(label, detail string) {
	p.printItem(ColorYellow, Dot, label, detail)
}

// FailItem prints a failure item with red cross
func (p *Printer) FailItem(label, detail string) {
	p.printItem(ColorRed, Cross, label, detail)
}

func (p *Printer) printItem(color, symbol, label, detail string) {
	line := "  " + p.colorize(color, symbol) + " " + label
	if detail != "" {
		line += ": " + detail
	}
	_, _ = io.WriteString(p.writer, line+"\n")
}

// Errorf prints an error message in red
func (p *Printer) Errorf(format string, args ...any) {
	p.line(ColorRed, Cross, format, args...)
}

// Successf prints a success message in green
func (p *Printer) Successf(format string, args ...any) {
	p.line(ColorGreen, Check, format, args...)
}

// Infof prints an info message in gray
func (p *Printer) Infof(format string, args ...any) {
	p.line(ColorGray, Dot, format, args...)
}

// Warnf prints a warning message in yellow
func (p *Printer) Warnf(format string, args ...any) {
	p.line(ColorYellow, Dot, format, args...)
}

// Printf prints a plain message without colors
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.writer, format+"\n", args...)
}

func (p *Printer) line(color, symbol, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	_, _ = io.WriteString(p.writer, p.colorize(color, symbol+" "+msg)+"\n")
}

// colorize applies ANSI color codes to text
func (p *Printer) colorize(color, text string) string {
	return color + text + ColorReset
}

// Bold makes text bold
func Bold(text string) string {
	return ColorBold + text + ColorReset
}

// Dim renders text in the muted gray used for secondary columns.
func Dim(text string) string {
	return ColorGray + text + ColorReset
}
