package cliui

import (
	"fmt"
	"slices"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/papercomputeco/adam/pkg/widget"
)

// RenderOptions controls how a widget is drawn.
type RenderOptions struct {
	// Markdown renders text widgets through glamour. Leave off when the
	// output is not a terminal.
	Markdown bool

	// Width wraps markdown output. Defaults to 80.
	Width int
}

// RenderWidget draws w for the terminal: a header with the prompt followed by
// a body chosen by the widget type.
func RenderWidget(w *widget.Widget, opts RenderOptions) string {
	var b strings.Builder

	b.WriteString(PromptStyle.Render("▸ "))
	b.WriteString(NameStyle.Render(w.Prompt))
	b.WriteString(" ")
	b.WriteString(DimStyle.Render(fmt.Sprintf("[%s %s]", w.Type, shortID(w.ID))))
	b.WriteString("\n")
	b.WriteString(RenderWidgetBody(w, opts))

	return b.String()
}

// RenderWidgetBody draws only the widget content.
func RenderWidgetBody(w *widget.Widget, opts RenderOptions) string {
	if w.Status == widget.StatusPending {
		return DimStyle.Render("waiting for the agent...") + "\n"
	}

	switch w.Type {
	case widget.TypeError:
		msg := w.Error
		if msg == "" {
			msg = widget.DefaultErrorMessage
		}
		return FailMark + " " + ErrorStyle.Render(msg) + "\n"

	case widget.TypeTable:
		if len(w.Rows) == 0 {
			return DimStyle.Render("No data available") + "\n"
		}
		return RenderTable(w.Rows) + "\n"

	case widget.TypeImage:
		return KeyStyle.Render("image: ") + ValueStyle.Render(w.Image) + "\n"

	default:
		if opts.Markdown {
			width := opts.Width
			if width <= 0 {
				width = defaultWidth
			}
			if rendered, err := RenderMarkdownWidth(w.Content, width); err == nil {
				return rendered
			}
		}
		return w.Content + "\n"
	}
}

// RenderTable draws rows as a bordered table. Columns are the union of row
// keys in alphabetical order; missing cells are blank.
func RenderTable(rows []map[string]any) string {
	var columns []string
	for _, row := range rows {
		for k := range row {
			if !slices.Contains(columns, k) {
				columns = append(columns, k)
			}
		}
	}
	slices.Sort(columns)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(DimStyle).
		Headers(columns...)

	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := row[col]; ok && v != nil {
				cells[i] = fmt.Sprint(v)
			}
		}
		t.Row(cells...)
	}

	return t.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
