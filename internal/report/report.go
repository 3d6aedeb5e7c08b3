// Package report renders runner reports for humans and for CI.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/colorstring"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/nmussy/cdk-sdk-versions/internal/runner"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
)

var ErrInvalidFormat = errors.Base("invalid output format")

// ParseFormat parses a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", errors.Errorf("%w: %q (must be %s or %s)", ErrInvalidFormat, s, FormatText, FormatYAML)
	}
}

// Options controls rendering.
type Options struct {
	Format Format
	// OneLine appends the snippet to the entry line instead of the next lines.
	OneLine bool
	// Color enables ANSI colors in text output.
	Color bool
}

// Writer renders reports to an output stream.
type Writer struct {
	w     io.Writer
	opts  Options
	color colorstring.Colorize
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer, opts Options) *Writer {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	return &Writer{
		w:    w,
		opts: opts,
		color: colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: !opts.Color,
		},
	}
}

// paint wraps text in a color. The text itself is never parsed for color
// codes, since symbols such as "[-]" would be taken for one.
func (w *Writer) paint(color, text string) string {
	return w.color.Color("["+color+"]") + text + w.color.Color("[reset]")
}

type symbol struct {
	color string
	text  string
}

var (
	symbolAdd     = symbol{"green", "[+]"}
	symbolRemove  = symbol{"red", "[-]"}
	symbolUpdate  = symbol{"yellow", "[~]"}
	symbolWarning = symbol{"red", "!!!"}
)

func actionSymbol(action runner.Action) symbol {
	switch action {
	case runner.ActionAdd, runner.ActionAddDeprecated:
		return symbolAdd
	case runner.ActionRemove:
		return symbolRemove
	default:
		return symbolUpdate
	}
}

// targetDeprecation renders the deprecation status the declaration should
// end up with. Removed versions are to be deprecated.
func targetDeprecation(e runner.Entry) string {
	if e.IsDeprecated || e.Action == runner.ActionRemove {
		return "@deprecated"
	}
	return "not @deprecated"
}

// Write renders every report.
func (w *Writer) Write(reports []*runner.Report) error {
	if w.opts.Format == FormatYAML {
		return w.writeYAML(reports)
	}
	for _, r := range reports {
		if err := w.writeText(r); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeText(r *runner.Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s results:\n\n", w.paint("bold", r.Name))

	if r.Empty() {
		b.WriteString("  no changes\n")
	}
	for _, e := range r.Entries {
		s := actionSymbol(e.Action)
		line := fmt.Sprintf("%s %s %s", w.paint(s.color, s.text), e.ID, targetDeprecation(e))

		switch {
		case e.Snippet == "":
			b.WriteString(line + "\n")
		case w.opts.OneLine:
			b.WriteString(line + " " + oneLine(e.Snippet) + "\n")
		default:
			b.WriteString(line + "\n" + e.Snippet + "\n")
		}
	}
	b.WriteString("\n")

	_, err := io.WriteString(w.w, b.String())
	return err
}

// oneLine joins the lines of a snippet, dropping the comment gutters.
func oneLine(snippet string) string {
	lines := strings.Split(snippet, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if i > 0 && strings.HasPrefix(line, "* ") {
			line = strings.TrimPrefix(line, "* ")
		}
		lines[i] = line
	}
	return strings.Join(lines, " ")
}

type document struct {
	Reports []*runner.Report `yaml:"reports"`
}

func (w *Writer) writeYAML(reports []*runner.Report) error {
	if reports == nil {
		reports = []*runner.Report{}
	}

	enc := yaml.NewEncoder(w.w)
	enc.SetIndent(2)
	if err := enc.Encode(document{Reports: reports}); err != nil {
		return errors.Errorf("failed to encode reports: %w", err)
	}
	return enc.Close()
}

// WriteErrors renders the failures of a batch, one per runner.
func (w *Writer) WriteErrors(err error) error {
	if err == nil {
		return nil
	}

	errs := []error{err}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		errs = merr.Errors
	}

	var b strings.Builder
	for _, e := range errs {
		fmt.Fprintf(&b, "%s %s\n", w.paint(symbolWarning.color, symbolWarning.text), e)
	}
	_, werr := io.WriteString(w.w, b.String())
	return werr
}

// Summary renders a one line tally of a batch.
func (w *Writer) Summary(reports []*runner.Report, failed int, elapsed time.Duration) error {
	changes := 0
	for _, r := range reports {
		changes += len(r.Entries)
	}

	line := fmt.Sprintf("%s, %s in %s",
		humanize.Plural(len(reports)+failed, "runner", ""),
		humanize.Plural(changes, "change", ""),
		elapsed.Round(time.Millisecond),
	)
	if failed > 0 {
		line += ", " + w.paint("red", humanize.Comma(int64(failed))+" failed")
	}

	_, err := fmt.Fprintln(w.w, line)
	return err
}
