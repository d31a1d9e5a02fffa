package main

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/warp/budget-engine/client"
	"github.com/warp/budget-engine/generic"
)

func browseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse <entity>",
		Short: "Page through an entity list interactively",
		Long: `Page through an entity list.

Keys: n next page, p previous page, / search, r refresh, q quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := client.NewStore(a.client, generic.WithRowsPerPage(a.cfg.Client.RowsPerPage))
			view, err := viewFor(store, args[0])
			if err != nil {
				return err
			}

			p := tea.NewProgram(newBrowseModel(cmd.Context(), view), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		},
	}
}

// =============================================================================
// MODEL
// =============================================================================

// loadedMsg reports the end of a list operation.
type loadedMsg struct {
	err error
}

type browseModel struct {
	ctx       context.Context
	view      entityView
	table     table.Model
	search    textinput.Model
	searching bool
	loading   bool
	err       error
}

func newBrowseModel(ctx context.Context, view entityView) browseModel {
	t := table.New(
		table.WithColumns(view.columns),
		table.WithFocused(true),
		table.WithHeight(view.list.Pagination().RowsPerPage+1),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.Foreground(colorText).Background(lipgloss.Color("#282726"))
	t.SetStyles(s)

	search := textinput.New()
	search.Placeholder = "Search..."
	search.CharLimit = 50

	return browseModel{ctx: ctx, view: view, table: t, search: search}
}

// run wraps a list operation as a command.
func (m browseModel) run(op func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return loadedMsg{err: op(ctx)}
	}
}

func (m browseModel) Init() tea.Cmd {
	rows := m.view.list.Pagination().RowsPerPage
	return m.run(func(ctx context.Context) error {
		return m.view.list.GetPage(ctx, 0, rows, nil)
	})
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		// A superseded response carries no state; the newer one will arrive.
		if errors.Is(msg.err, generic.ErrStaleResponse) {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		m.table.SetRows(m.view.rows())
		m.table.SetCursor(0)
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m browseModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.view.list.Pagination()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n", "right":
		if p.CurrentPage+1 >= m.view.pageCount() {
			return m, nil
		}
		m.loading = true
		return m, m.run(func(ctx context.Context) error {
			return m.view.list.GetPage(ctx, p.CurrentPage+1, p.RowsPerPage, nil)
		})
	case "p", "left":
		if p.CurrentPage == 0 {
			return m, nil
		}
		m.loading = true
		return m, m.run(func(ctx context.Context) error {
			return m.view.list.GetPage(ctx, p.CurrentPage-1, p.RowsPerPage, nil)
		})
	case "r":
		m.loading = true
		return m, m.run(m.view.list.Refresh)
	case "/":
		m.searching = true
		m.search.SetValue(m.view.list.Filter().Search())
		cmd := m.search.Focus()
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m browseModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		m.loading = true
		keyword := strings.TrimSpace(m.search.Value())
		return m, m.run(func(ctx context.Context) error {
			return m.view.list.ApplyFilters(ctx, generic.Keyword(keyword))
		})
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.view.name))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(renderFooter(m.view))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(loadingStyle.Render("loading..."))
	case m.err != nil:
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
	}
	b.WriteString("\n")

	if m.searching {
		b.WriteString(m.search.View())
	} else {
		b.WriteString(mutedStyle.Render("n next · p prev · / search · r refresh · q quit"))
	}
	b.WriteString("\n")
	return b.String()
}
