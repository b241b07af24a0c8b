// Package output renders CLI results as tables, JSON or YAML.
package output

import (
	"fmt"
	"io"
	"strings"
)

// Format is an output format name.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses s into a Format. The empty string selects table.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: table, json, yaml)", s)
	}
}

func (f Format) String() string {
	return string(f)
}

// Printer writes values to out in a fixed format.
type Printer struct {
	out    io.Writer
	format Format
	color  bool
}

// NewPrinter creates a Printer.
func NewPrinter(out io.Writer, format Format, color bool) *Printer {
	return &Printer{out: out, format: format, color: color}
}

// Format returns the printer's output format.
func (p *Printer) Format() Format {
	return p.format
}

// Print renders data. Table output requires a TableRenderer and falls back
// to JSON otherwise.
func (p *Printer) Print(data any) error {
	switch p.format {
	case FormatTable:
		if r, ok := data.(TableRenderer); ok {
			return PrintTable(p.out, r)
		}
		return PrintJSON(p.out, data)
	case FormatJSON:
		return PrintJSON(p.out, data)
	case FormatYAML:
		return PrintYAML(p.out, data)
	default:
		return fmt.Errorf("unknown format: %s", p.format)
	}
}

// PrintRecord renders one element of a stream: a JSON line, a YAML
// document, or for tables the row's cells separated by two spaces.
func (p *Printer) PrintRecord(data any) error {
	switch p.format {
	case FormatJSON:
		return PrintJSONCompact(p.out, data)
	case FormatYAML:
		if _, err := io.WriteString(p.out, "---\n"); err != nil {
			return err
		}
		return PrintYAML(p.out, data)
	default:
		if r, ok := data.(TableRenderer); ok {
			for _, row := range r.Rows() {
				if _, err := fmt.Fprintln(p.out, strings.Join(row, "  ")); err != nil {
					return err
				}
			}
			return nil
		}
		return PrintJSONCompact(p.out, data)
	}
}

// Success prints msg in green when colour is enabled.
func (p *Printer) Success(msg string) {
	p.colored("\033[32m", msg)
}

// Warning prints msg in yellow when colour is enabled.
func (p *Printer) Warning(msg string) {
	p.colored("\033[33m", msg)
}

func (p *Printer) colored(code, msg string) {
	if p.color {
		_, _ = fmt.Fprintf(p.out, "%s%s\033[0m\n", code, msg)
		return
	}
	_, _ = fmt.Fprintln(p.out, msg)
}
