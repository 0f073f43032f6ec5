package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"pharmadash/internal/modules/datamanager/application/usecase"
	"pharmadash/internal/modules/datamanager/domain"
)

// renderView prints the visible page as a table of the screen columns.
func renderView(out io.Writer, view usecase.View) {
	columns := view.Columns
	if len(columns) == 0 {
		columns = inferColumns(view.Rows)
	}

	header := color.New(color.FgCyan, color.Bold)
	header.Fprintf(out, "%s", view.Title)
	if view.ShowingDeleted {
		color.New(color.FgRed).Fprint(out, " (deleted)")
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	labels := make([]string, 0, len(columns)+1)
	labels = append(labels, "ID")
	for _, column := range columns {
		labels = append(labels, strings.ToUpper(column.Label))
	}
	fmt.Fprintln(w, strings.Join(labels, "\t"))
	for _, row := range view.Rows {
		cells := make([]string, 0, len(columns)+1)
		id, _ := row.Display(domain.FieldID)
		cells = append(cells, id)
		for _, column := range columns {
			text, _ := row.Display(column.Key)
			cells = append(cells, text)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	_ = w.Flush()

	fmt.Fprintf(out, "page %d/%d, %d rows", view.Meta.CurrentPage, view.Meta.LastPage, view.Meta.Total)
	if len(view.Selected) > 0 {
		fmt.Fprintf(out, ", %d selected", len(view.Selected))
	}
	fmt.Fprintln(out)
	if view.Error != "" {
		color.New(color.FgRed).Fprintf(out, "error: %s\n", view.Error)
	}
}

// inferColumns uses the keys of the first row when a screen declares no columns.
func inferColumns(rows []domain.Entity) []domain.Column {
	if len(rows) == 0 {
		return nil
	}
	keys := make([]string, 0, len(rows[0]))
	for key := range rows[0] {
		if key != domain.FieldID {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	columns := make([]domain.Column, 0, len(keys))
	for _, key := range keys {
		columns = append(columns, domain.Column{Key: key, Label: key})
	}
	return columns
}

func renderFilters(out io.Writer, fields []domain.FilterField) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tLABEL\tTYPE\tOPTIONS")
	for _, field := range fields {
		options := make([]string, 0, len(field.Options))
		for _, option := range field.Options {
			options = append(options, option.Value+"="+option.Label)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", field.Key, field.Label, field.Type, strings.Join(options, ", "))
	}
	_ = w.Flush()
}

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
