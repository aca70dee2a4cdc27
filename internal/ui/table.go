package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column. Right aligns cells to the right edge,
// which suits counts and amounts.
type Column struct {
	Title string
	Width int
	Right bool
}

// Row is a slice of cell values.
type Row []string

// Table renders a lipgloss-styled table.
type Table struct {
	Columns []Column
	Rows    []Row
	SelIdx  int // selected row index (-1 = none)
}

// NewTable creates a new table.
func NewTable(cols []Column) *Table {
	return &Table{Columns: cols, SelIdx: -1}
}

// AddRow appends a row.
func (t *Table) AddRow(r Row) {
	t.Rows = append(t.Rows, r)
}

// fit pads or truncates s to exactly width display cells. Styling is applied
// after fitting so lipgloss never wraps a cell.
func (c Column) fit(s string) string {
	if lipgloss.Width(s) > c.Width {
		r := []rune(s)
		for len(r) > 0 && lipgloss.Width(string(r))+1 > c.Width {
			r = r[:len(r)-1]
		}
		s = string(r) + "…"
	}
	gap := strings.Repeat(" ", max(0, c.Width-lipgloss.Width(s)))
	if c.Right {
		return gap + s
	}
	return s + gap
}

// Render returns the full table as a string.
func (t *Table) Render() string {
	headerStyle := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(ColorValue)

	line := func(cell func(j int, c Column) string) string {
		parts := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			parts[j] = cell(j, c)
		}
		return strings.Join(parts, " ") + "\n"
	}

	var sb strings.Builder
	sb.WriteString(line(func(_ int, c Column) string {
		return headerStyle.Render(c.fit(c.Title))
	}))
	sb.WriteString(line(func(_ int, c Column) string {
		return StyleDim.Render(strings.Repeat("-", c.Width))
	}))
	for i, row := range t.Rows {
		style := cellStyle
		if i == t.SelIdx {
			style = StyleSelected
		}
		sb.WriteString(line(func(j int, c Column) string {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			return style.Render(c.fit(val))
		}))
	}
	return sb.String()
}

// KeyValueBlock renders a set of key-value pairs in a bordered box. Values
// may already be styled; keys are aligned to the longest one.
func KeyValueBlock(title string, pairs [][2]string) string {
	return keyValueBox(StyleBorder, title, pairs)
}

func keyValueBox(box lipgloss.Style, title string, pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		width = max(width, lipgloss.Width(p[0])+1)
	}

	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title))
		sb.WriteString("\n")
	}
	for i, p := range pairs {
		key := StyleMeta.Render(padR(p[0]+":", width))
		sb.WriteString(key + "  " + StyleValue.Render(p[1]))
		if i < len(pairs)-1 {
			sb.WriteString("\n")
		}
	}
	return box.Render(sb.String())
}
