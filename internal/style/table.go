package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column with name and minimum width.
type Column struct {
	Name  string
	Width int
	Align Alignment
}

// Alignment specifies column text alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Table renders rows in fixed-width columns. Widths grow to fit the widest
// cell.
type Table struct {
	columns []Column
	rows    [][]string
	indent  string
}

// NewTable creates a new table with the given columns.
func NewTable(columns ...Column) *Table {
	return &Table{columns: columns}
}

// SetIndent sets the left indent for the table.
func (t *Table) SetIndent(indent string) *Table {
	t.indent = indent
	return t
}

// AddRow adds a row, padding missing cells with empty strings.
func (t *Table) AddRow(values ...string) *Table {
	for len(values) < len(t.columns) {
		values = append(values, "")
	}
	t.rows = append(t.rows, values)
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Render returns the formatted table. Headers and the separator are styled
// through p.
func (t *Table) Render(p *Printer) string {
	if len(t.columns) == 0 {
		return ""
	}
	widths := make([]int, len(t.columns))
	for i, col := range t.columns {
		widths[i] = max(col.Width, lipgloss.Width(col.Name))
		for _, row := range t.rows {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var sb strings.Builder
	header := make([]string, len(t.columns))
	for i, col := range t.columns {
		header[i] = pad(col.Name, widths[i], col.Align)
	}
	sb.WriteString(t.indent + p.Render(Bold, strings.TrimRight(strings.Join(header, "  "), " ")) + "\n")

	total := 2 * (len(widths) - 1)
	for _, w := range widths {
		total += w
	}
	sb.WriteString(t.indent + p.Render(Dim, strings.Repeat("─", total)) + "\n")

	for _, row := range t.rows {
		cells := make([]string, len(t.columns))
		for i, col := range t.columns {
			cells[i] = pad(row[i], widths[i], col.Align)
		}
		sb.WriteString(t.indent + strings.TrimRight(strings.Join(cells, "  "), " ") + "\n")
	}
	return sb.String()
}

func pad(text string, width int, align Alignment) string {
	n := width - lipgloss.Width(text)
	if n <= 0 {
		return text
	}
	if align == AlignRight {
		return strings.Repeat(" ", n) + text
	}
	return text + strings.Repeat(" ", n)
}
