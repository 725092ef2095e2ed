package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/toyz/annoscope/internal/errors"
)

// Format selects how results are rendered
type Format string

const (
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
)

// ParseFormat converts a configured format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatYAML, FormatJSON:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", errors.ConfigurationError("output", fmt.Sprintf("unknown output format '%s'", s)).
			WithSuggestion("Use table, yaml or json")
	}
}

// Renderer writes results in one format
type Renderer struct {
	w      io.Writer
	format Format
}

// NewRenderer creates a renderer writing to w
func NewRenderer(w io.Writer, format Format) *Renderer {
	return &Renderer{w: w, format: format}
}

// Kinds renders a kind listing
func (r *Renderer) Kinds(kinds []KindView) error {
	if r.format != FormatTable {
		return r.encode(kinds)
	}
	table := r.table("Kind", "Inherited", "Container", "Members")
	for _, k := range kinds {
		name := k.Name
		if k.External {
			name += " (external)"
		}
		table.Append([]string{name, strconv.FormatBool(k.Inherited), k.Container, strings.Join(k.Members, ", ")})
	}
	table.Render()
	return nil
}

// Query renders the annotations found by a query
func (r *Renderer) Query(result QueryResult) error {
	if r.format != FormatTable {
		return r.encode(result)
	}
	if len(result.Annotations) == 0 {
		_, err := fmt.Fprintf(r.w, "No %s annotations found for %s\n", result.Kind, result.Selector)
		return err
	}
	r.annotationTable(result.Annotations)
	return nil
}

// Presence renders a presence check
func (r *Renderer) Presence(result PresenceResult) error {
	if r.format != FormatTable {
		return r.encode(result)
	}
	_, err := fmt.Fprintf(r.w, "%s on %s: %t\n", result.Kind, result.Selector, result.Present)
	return err
}

// Sources renders the argument sources of a method
func (r *Renderer) Sources(result SourcesResult) error {
	if r.format != FormatTable {
		return r.encode(result)
	}
	if len(result.Parameters) == 0 && len(result.Method) == 0 {
		_, err := fmt.Fprintf(r.w, "No argument sources found for %s\n", result.Selector)
		return err
	}
	if len(result.Parameters) > 0 {
		fmt.Fprintln(r.w, "Parameter sources:")
		r.annotationTable(result.Parameters)
	}
	if len(result.Method) > 0 {
		fmt.Fprintln(r.w, "Method sources:")
		r.annotationTable(result.Method)
	}
	return nil
}

func (r *Renderer) annotationTable(annotations []AnnotationView) {
	table := r.table("Annotation", "Declared on", "Location")
	for _, a := range annotations {
		table.Append([]string{a.Text, a.Declarer, a.Location})
	}
	table.Render()
}

func (r *Renderer) table(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(r.w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func (r *Renderer) encode(v interface{}) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.ConfigurationError("output", fmt.Sprintf("unknown output format '%s'", r.format))
	}
}
