package output

import (
	"strings"

	"github.com/fatih/color"
)

// cell is one table entry. Widths are measured on text, so escape codes
// never shift the columns.
type cell struct {
	text  string
	color *color.Color
}

type align int

const (
	alignLeft align = iota
	alignRight
)

type table struct {
	headers []string
	aligns  []align
	rows    [][]cell
}

func newTable(headers ...string) *table {
	aligns := make([]align, len(headers))
	for i := 1; i < len(aligns); i++ {
		aligns[i] = alignRight
	}
	return &table{headers: headers, aligns: aligns}
}

func (t *table) add(cells ...cell) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(s *ColorScheme) string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len([]rune(h))
	}
	for _, row := range t.rows {
		for i, c := range row {
			if n := len([]rune(c.text)); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var b strings.Builder
	for i, h := range t.headers {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(s.Header.Sprint(pad(h, widths[i], t.aligns[i])))
	}
	b.WriteString("\n")

	for _, row := range t.rows {
		for i, c := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			text := pad(c.text, widths[i], t.aligns[i])
			if c.color != nil {
				text = c.color.Sprint(text)
			}
			b.WriteString(text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func pad(s string, width int, a align) string {
	n := width - len([]rune(s))
	if n <= 0 {
		return s
	}
	if a == alignRight {
		return strings.Repeat(" ", n) + s
	}
	return s + strings.Repeat(" ", n)
}
