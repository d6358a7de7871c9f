package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmitrijs2005/adminconsole/internal/client/models"
	"github.com/dmitrijs2005/adminconsole/internal/client/resources"
	"github.com/dmitrijs2005/adminconsole/internal/client/store"
)

const cellWidth = 32

var styles = struct {
	title   lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}{
	title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2196F3")),
	header:  lipgloss.NewStyle().Bold(true).Padding(0, 1),
	cell:    lipgloss.NewStyle().Padding(0, 1),
	muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
	success: lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")),
	failure: lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")),
}

// columns lists the table columns for a resource: position, id, order for
// ordered resources, then every field in declaration order.
func columns(s resources.Schema) []string {
	cols := []string{"#", "id"}
	if s.Ordered() {
		cols = append(cols, models.OrderField)
	}
	for _, f := range s.Fields {
		if f.Name != models.OrderField {
			cols = append(cols, f.Name)
		}
	}
	return cols
}

// renderPage writes one page of a collection as a table. Positions are
// 1-based indexes into the whole collection.
func renderPage(w io.Writer, s resources.Schema, page store.Page, position func(id string) int) {
	fmt.Fprintln(w, styles.title.Render(s.Title))
	if len(page.Items) == 0 {
		fmt.Fprintln(w, styles.muted.Render("(no entries)"))
		return
	}

	cols := columns(s)
	rows := make([][]string, 0, len(page.Items))
	for _, e := range page.Items {
		row := make([]string, len(cols))
		for i, c := range cols {
			switch c {
			case "#":
				row[i] = strconv.Itoa(position(e.ID) + 1)
			case "id":
				row[i] = e.ID
			default:
				row[i] = truncate(e.Get(c), cellWidth)
			}
		}
		rows = append(rows, row)
	}

	widths := make([]int, len(cols))
	for i, h := range cols {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	for i := range widths {
		widths[i] += 2
	}

	sep := styles.muted.Render("|")
	var sb strings.Builder
	for i, h := range cols {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(styles.header.Width(widths[i]).Render(h))
	}
	sb.WriteString("\n")
	total := len(cols) - 1
	for _, n := range widths {
		total += n
	}
	sb.WriteString(styles.muted.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				sb.WriteString(sep)
			}
			sb.WriteString(styles.cell.Width(widths[i]).Render(cell))
		}
		sb.WriteString("\n")
	}
	fmt.Fprint(w, sb.String())

	fmt.Fprintln(w, styles.muted.Render(fmt.Sprintf("page %d of %d, %d total",
		page.CurrentPage+1, max(page.TotalPages, 1), page.TotalCount)))
}

// truncate shortens s to n runes on a single line.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func renderCounts(w io.Writer, counts map[string]int, at time.Time) {
	if len(counts) == 0 {
		fmt.Fprintln(w, styles.muted.Render("(no counters yet)"))
		return
	}
	for _, k := range slices.Sorted(maps.Keys(counts)) {
		fmt.Fprintf(w, "%-28s %d\n", k, counts[k])
	}
	fmt.Fprintln(w, styles.muted.Render("as of "+at.Local().Format(time.TimeOnly)))
}
