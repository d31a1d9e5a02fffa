package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
)

// Theme colors (Flexoki Dark)
var (
	colorBorder    = lipgloss.Color("#403E3C")
	colorTextMuted = lipgloss.Color("#878580")
	colorText      = lipgloss.Color("#FFFCF0")
	colorAccent    = lipgloss.Color("#3AA99F")
	colorRed       = lipgloss.Color("#D14D41")
	colorYellow    = lipgloss.Color("#D0A215")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	loadingStyle = lipgloss.NewStyle().
			Foreground(colorYellow)
)

// renderTable renders rows with the view's column titles.
func renderTable(columns []table.Column, rows []table.Row) string {
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.Title
	}

	t := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range rows {
		t.Row(r...)
	}
	return t.String()
}

// renderFooter renders "page 2/5 · 37 total · search: kw".
func renderFooter(v entityView) string {
	p := v.list.Pagination()
	parts := []string{
		fmt.Sprintf("page %d/%d", p.CurrentPage+1, v.pageCount()),
		fmt.Sprintf("%d total", v.list.TotalEntityCount()),
	}
	if kw := v.list.Filter().Search(); kw != "" {
		parts = append(parts, "search: "+kw)
	}
	return mutedStyle.Render(strings.Join(parts, " · "))
}
